package renderer

import (
	"encoding/binary"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// drawUniformSize is the WGSL size of DrawUniform: mat4x4 + vec4 + u32, padded to 16 bytes.
	drawUniformSize = 96

	// uniformStride is the distance between per-draw slots in the uniform ring. It is the default
	// minUniformBufferOffsetAlignment.
	uniformStride = 256
)

// drawUniform mirrors DrawUniform in pick.wgsl and tint.wgsl.
type drawUniform struct {
	MVP  [16]float32
	Tint [4]float32
	ID   uint32
	_    [3]uint32
}

// encodeDrawUniform packs the per-draw uniform block. Identity fills carry the encoded value; tint fills carry
// the color and a zero id.
func encodeDrawUniform(mvp mgl32.Mat4, fill picking.Fill) []byte {
	u := drawUniform{MVP: [16]float32(mvp)}
	switch fill.Mode {
	case picking.FillTint:
		u.Tint = fill.Tint.Array()
	default:
		u.ID = uint32(fill.Value)
	}
	buf := make([]byte, drawUniformSize)
	if _, err := binary.Encode(buf, binary.LittleEndian, &u); err != nil {
		panic(fmt.Sprintf("renderer: encode draw uniform: %v", err))
	}
	return buf
}

// pipelineKey names the pipeline a pass state needs on a target. Blending never applies to the integer pick
// target.
func pipelineKey(kind targetKind, s picking.PassState) string {
	return fmt.Sprintf("%s|%s|write=%t|test=%t|blend=%t",
		kind, s.DepthCompare, s.DepthWrite, s.DepthTest, s.Blend && kind == targetHost)
}

func toWGPUCompare(f picking.CompareFunction) wgpu.CompareFunction {
	switch f {
	case picking.CompareLess:
		return wgpu.CompareFunctionLess
	case picking.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case picking.CompareGreater:
		return wgpu.CompareFunctionGreater
	case picking.CompareGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	default:
		return wgpu.CompareFunctionAlways
	}
}

// clampViewport clips vp to a width x height attachment. The second result is false when nothing is left.
func clampViewport(vp common.Viewport, width, height uint32) (common.Viewport, bool) {
	x0 := max(vp.X, 0)
	y0 := max(vp.Y, 0)
	x1 := min(vp.X+vp.Width, int32(width))
	y1 := min(vp.Y+vp.Height, int32(height))
	if x1 <= x0 || y1 <= y0 {
		return common.Viewport{}, false
	}
	return common.Viewport{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}
