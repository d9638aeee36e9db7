package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("scene")

	assert.Equal(t, "scene", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CompareFunctionLess, p.DepthCompare())
	assert.Equal(t, wgpu.TextureFormatDepth32Float, p.DepthFormat())
	assert.Equal(t, uint32(1), p.SampleCount())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Nil(t, p.RenderPipeline())
}

func TestPipelineOptions(t *testing.T) {
	vs, err := shader.NewShader("vs", shader.ShaderTypeVertex, shader.PickSource)
	require.NoError(t, err)
	fs, err := shader.NewShader("fs", shader.ShaderTypeFragment, shader.PickSource)
	require.NoError(t, err)

	p := NewPipeline("pick",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithDepthCompare(wgpu.CompareFunctionGreater),
		WithColorFormat(wgpu.TextureFormatR16Uint),
		WithSampleCount(4),
		WithBlendEnabled(true),
		WithCullMode(wgpu.CullModeBack),
	)

	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
	assert.Equal(t, wgpu.CompareFunctionGreater, p.DepthCompare())
	assert.Equal(t, wgpu.TextureFormatR16Uint, p.ColorFormat())
	assert.Equal(t, uint32(4), p.SampleCount())
	assert.NotNil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
}

func TestDepthCompareWithoutDepthTest(t *testing.T) {
	p := NewPipeline("overlay", WithDepthTestEnabled(false), WithDepthCompare(wgpu.CompareFunctionGreaterEqual))
	assert.Equal(t, wgpu.CompareFunctionAlways, p.DepthCompare())
}

func TestWithSampleCountIgnoresZero(t *testing.T) {
	p := NewPipeline("p", WithSampleCount(0))
	assert.Equal(t, uint32(1), p.SampleCount())
}
