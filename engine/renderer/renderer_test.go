package renderer

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	calls       []string
	drawErr     error
	vertices    [][]vulkan.Vertex
	invalidated []string
	stages      vulkan.ShaderStages
}

func (b *stubBackend) Initialize() error { b.calls = append(b.calls, "init"); return nil }
func (b *stubBackend) Shutdown() error   { b.calls = append(b.calls, "shutdown"); return nil }
func (b *stubBackend) DrawFrame() error  { b.calls = append(b.calls, "draw"); return b.drawErr }

func (b *stubBackend) AddVertexBuffer(vertices []vulkan.Vertex) error {
	b.vertices = append(b.vertices, vertices)
	return nil
}

func (b *stubBackend) ReloadShaders(stages vulkan.ShaderStages) error {
	b.stages = stages
	return nil
}
func (b *stubBackend) Invalidate(reason string) { b.invalidated = append(b.invalidated, reason) }

func TestRendererForwardsToBackend(t *testing.T) {
	backend := &stubBackend{}
	r := NewWithBackend(backend)

	require.NoError(t, r.Initialize())
	require.NoError(t, r.DrawFrame(&RenderPacket{DeltaTime: 0.016}))
	require.NoError(t, r.UploadVertices([]vulkan.Vertex{{}, {}, {}}))
	require.NoError(t, r.ReloadShaders(vulkan.ShaderStages{Vertex: []uint32{1}}))
	r.OnResize(1024, 768)
	require.NoError(t, r.Shutdown())

	assert.Equal(t, []string{"init", "draw", "shutdown"}, backend.calls)
	assert.Len(t, backend.vertices, 1)
	assert.Equal(t, []uint32{1}, backend.stages.Vertex)
	assert.Equal(t, []string{"window resized"}, backend.invalidated)
}

func TestRendererDrawFrameError(t *testing.T) {
	backend := &stubBackend{drawErr: core.ErrFenceTimeout}
	r := NewWithBackend(backend)

	err := r.DrawFrame(&RenderPacket{})
	assert.True(t, errors.Is(err, core.ErrFenceTimeout))
}

func TestNewRejectsUnsupportedBackends(t *testing.T) {
	_, err := New(Metal, vulkan.BackendConfig{}, nil)
	assert.ErrorIs(t, err, core.ErrUnknown)
	assert.Equal(t, "metal", Metal.String())
}
