package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedEntryPoints(t *testing.T) {
	cases := []struct {
		source string
		stage  ShaderType
		entry  string
	}{
		{PickSource, ShaderTypeVertex, "vs_pick"},
		{PickSource, ShaderTypeFragment, "fs_pick"},
		{TintSource, ShaderTypeVertex, "vs_tint"},
		{TintSource, ShaderTypeFragment, "fs_tint"},
	}
	for _, tc := range cases {
		s, err := NewShader(tc.entry, tc.stage, tc.source)
		require.NoError(t, err)
		assert.Equal(t, tc.entry, s.EntryPoint())
		assert.Equal(t, tc.stage, s.ShaderType())
		assert.Equal(t, tc.source, s.Module().WGSLDescriptor.Code)
	}
}

func TestVertexLayoutOfEmbeddedSources(t *testing.T) {
	for _, src := range []string{PickSource, TintSource} {
		s, err := NewShader("vs", ShaderTypeVertex, src)
		require.NoError(t, err)

		layouts := s.VertexLayouts()
		require.Len(t, layouts, 1)
		assert.Equal(t, uint64(24), layouts[0].ArrayStride)
		require.Len(t, layouts[0].Attributes, 2)
		assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[0].Format)
		assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
		assert.Equal(t, uint32(1), layouts[0].Attributes[1].ShaderLocation)
	}
}

func TestFragmentShaderHasNoVertexLayouts(t *testing.T) {
	s, err := NewShader("fs", ShaderTypeFragment, TintSource)
	require.NoError(t, err)
	assert.Empty(t, s.VertexLayouts())
}

func TestNewShaderWithoutEntryPoint(t *testing.T) {
	_, err := NewShader("empty", ShaderTypeVertex, "// @vertex fn commented_out() {}\nstruct A { x: f32 }")
	assert.Error(t, err)
}
