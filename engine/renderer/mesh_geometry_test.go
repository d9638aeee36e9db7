package renderer

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const panelManifest = `
scene: panel
manipulators:
  - name: knob
    kind: noop
    box: {center: [0, 0, 0], size: [1, 1, 1]}
  - name: hidden
    kind: noop
  - kind: noop
    box: {center: [1, 2, 3], size: [2, 4, 6]}
occluders:
  - {center: [0, 0, -1], size: [3, 3, 0.1]}
`

func loadPanel(t *testing.T) *loader.Scene {
	t.Helper()
	s, err := loader.NewLoader(loader.BackendTypeYAML).LoadReader("panel", strings.NewReader(panelManifest))
	require.NoError(t, err)
	return s
}

type seen struct {
	id    manipulator.Identity
	label string
}

func collect(g picking.Geometry, sel picking.Selection) []seen {
	var out []seen
	g.Meshes(sel, func(id manipulator.Identity, m picking.Mesh) {
		out = append(out, seen{id, m.Label()})
	})
	return out
}

func TestMeshGeometryAll(t *testing.T) {
	g := NewMeshGeometry(loadPanel(t))
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, []seen{
		{0, "knob"},
		{2, "manipulator-2"},
		{manipulator.Sentinel, "occluder-0"},
	}, collect(g, picking.AllManipulators()))
}

func TestMeshGeometryOnly(t *testing.T) {
	g := NewMeshGeometry(loadPanel(t))
	assert.Equal(t, []seen{{2, "manipulator-2"}}, collect(g, picking.Only(2)))
	assert.Empty(t, collect(g, picking.Only(1)))
	assert.Empty(t, collect(g, picking.Only(manipulator.Sentinel)))
}

func TestNilSceneGeometry(t *testing.T) {
	g := NewMeshGeometry(nil)
	assert.Zero(t, g.Len())
	assert.Empty(t, collect(g, picking.AllManipulators()))
}

func TestBoxModelMapsUnitCube(t *testing.T) {
	m := NewBoxMesh("b", loader.Box{Center: [3]float32{1, 2, 3}, Size: [3]float32{2, 4, 6}})
	corner := m.Model().Mul4x1(mgl32.Vec4{0.5, 0.5, 0.5, 1})
	assert.InDeltaSlice(t, []float32{2, 4, 6, 1}, corner[:], 1e-6)
	other := m.Model().Mul4x1(mgl32.Vec4{-0.5, -0.5, -0.5, 1})
	assert.InDeltaSlice(t, []float32{0, 0, 0, 1}, other[:], 1e-6)
}

func TestCubeWindingFacesOutward(t *testing.T) {
	verts := cubeVertices()
	idx := cubeIndices()
	require.Len(t, verts, 24*cubeFloatsPerVertex)
	require.Len(t, idx, 36)

	pos := func(i uint32) mgl32.Vec3 {
		o := int(i) * cubeFloatsPerVertex
		return mgl32.Vec3{verts[o], verts[o+1], verts[o+2]}
	}
	normal := func(i uint32) mgl32.Vec3 {
		o := int(i)*cubeFloatsPerVertex + 3
		return mgl32.Vec3{verts[o], verts[o+1], verts[o+2]}
	}
	for tri := 0; tri < len(idx); tri += 3 {
		a, b, c := pos(idx[tri]), pos(idx[tri+1]), pos(idx[tri+2])
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Greater(t, face.Dot(normal(idx[tri])), float32(0), "triangle %d", tri/3)
		assert.Greater(t, a.Dot(normal(idx[tri])), float32(0), "triangle %d lies on its outer face", tri/3)
	}
}
