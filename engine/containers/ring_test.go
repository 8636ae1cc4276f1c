package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingAdvanceWraps(t *testing.T) {
	r := NewRing([]string{"a", "b", "c"})
	assert.Equal(t, "a", r.Current())

	seen := []string{}
	for i := 0; i < 7; i++ {
		seen = append(seen, r.Current())
		r.Advance()
	}
	assert.Equal(t, []string{"a", "b", "c", "a", "b", "c", "a"}, seen)
	assert.Equal(t, 1, r.Index())
}

func TestRingEmpty(t *testing.T) {
	r := NewRing[int](nil)
	assert.True(t, r.IsEmpty())
	r.Advance()
	assert.Equal(t, 0, r.Index())
}

func TestRingEach(t *testing.T) {
	r := NewRing([]int{4, 5, 6})
	sum := 0
	r.Each(func(i int, v int) { sum += i * v })
	assert.Equal(t, 0*4+1*5+2*6, sum)
	assert.Equal(t, 3, r.Len())
}
