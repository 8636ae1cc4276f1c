package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(5), Clamp(uint32(1), 5, 10))
	assert.Equal(t, uint32(10), Clamp(uint32(11), 5, 10))
	assert.Equal(t, uint32(7), Clamp(uint32(7), 5, 10))
	assert.Equal(t, 0.5, Clamp(0.5, 0.0, 1.0))
	assert.Equal(t, -1, Clamp(-3, -1, 1))
}

func TestMin(t *testing.T) {
	assert.Equal(t, 2, Min(3, 2))
	assert.Equal(t, uint32(1), Min(uint32(1), 9))
}
