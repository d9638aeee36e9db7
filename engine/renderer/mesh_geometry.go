package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/loader"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/go-gl/mathgl/mgl32"
)

// cubeFloatsPerVertex is position (3) followed by normal (3).
const cubeFloatsPerVertex = 6

// BoxMesh is an axis aligned box drawn from the shared unit cube.
type BoxMesh struct {
	label string
	model mgl32.Mat4
}

var _ picking.Mesh = &BoxMesh{}

// NewBoxMesh creates the mesh for b.
//
// Parameters:
//   - label: a label for logs
//   - b: the box in model space
//
// Returns:
//   - *BoxMesh: the mesh
func NewBoxMesh(label string, b loader.Box) *BoxMesh {
	return &BoxMesh{label: label, model: boxModel(b)}
}

func (m *BoxMesh) Label() string {
	return m.label
}

// Model returns the transform from the unit cube onto the box.
func (m *BoxMesh) Model() mgl32.Mat4 {
	return m.model
}

type manipulatorMesh struct {
	id   manipulator.Identity
	mesh *BoxMesh
}

// MeshGeometry is the picking.Geometry of a loaded scene: one box per manipulator shape plus the scene's occluders.
type MeshGeometry struct {
	manipulators []manipulatorMesh
	occluders    []*BoxMesh
}

var _ picking.Geometry = &MeshGeometry{}

// NewMeshGeometry builds the geometry for scene. Manipulators without a shape are pickable by no pixel.
//
// Parameters:
//   - scene: the loaded scene
//
// Returns:
//   - *MeshGeometry: the geometry
func NewMeshGeometry(scene *loader.Scene) *MeshGeometry {
	g := &MeshGeometry{}
	if scene == nil {
		return g
	}
	for _, s := range scene.Shapes {
		d, _ := scene.Catalog.Lookup(s.Identity)
		label := common.Coalesce(d.Name, fmt.Sprintf("manipulator-%d", s.Identity))
		g.manipulators = append(g.manipulators, manipulatorMesh{id: s.Identity, mesh: NewBoxMesh(label, s.Box)})
	}
	for i, b := range scene.Occluders {
		g.occluders = append(g.occluders, NewBoxMesh(fmt.Sprintf("occluder-%d", i), b))
	}
	return g
}

// Meshes enumerates the selected manipulator meshes in manifest order. Selecting all manipulators also enumerates
// the occluders, reported under manipulator.Sentinel.
func (g *MeshGeometry) Meshes(sel picking.Selection, fn func(id manipulator.Identity, mesh picking.Mesh)) {
	for _, m := range g.manipulators {
		if sel.Includes(m.id) {
			fn(m.id, m.mesh)
		}
	}
	if !sel.All() {
		return
	}
	for _, o := range g.occluders {
		fn(manipulator.Sentinel, o)
	}
}

// Len returns the number of meshes, occluders included.
func (g *MeshGeometry) Len() int {
	return len(g.manipulators) + len(g.occluders)
}

func boxModel(b loader.Box) mgl32.Mat4 {
	c := b.Center
	s := b.Size
	return mgl32.Translate3D(c[0], c[1], c[2]).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// cubeFaces lists the outward normal and the four corners of each face of the unit cube, counter-clockwise when
// seen from outside.
var cubeFaces = [6]struct {
	normal  [3]float32
	corners [4][3]float32
}{
	{[3]float32{1, 0, 0}, [4][3]float32{{0.5, -0.5, 0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}}},
	{[3]float32{-1, 0, 0}, [4][3]float32{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}}},
	{[3]float32{0, 1, 0}, [4][3]float32{{-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5}}},
	{[3]float32{0, -1, 0}, [4][3]float32{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}}},
	{[3]float32{0, 0, 1}, [4][3]float32{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}}},
	{[3]float32{0, 0, -1}, [4][3]float32{{0.5, -0.5, -0.5}, {-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}}},
}

// cubeVertices returns the interleaved position and normal data of the unit cube centred on the origin.
func cubeVertices() []float32 {
	out := make([]float32, 0, len(cubeFaces)*4*cubeFloatsPerVertex)
	for _, f := range cubeFaces {
		for _, c := range f.corners {
			out = append(out, c[0], c[1], c[2], f.normal[0], f.normal[1], f.normal[2])
		}
	}
	return out
}

// cubeIndices returns the triangle list indices for cubeVertices.
func cubeIndices() []uint32 {
	out := make([]uint32, 0, len(cubeFaces)*6)
	for i := range cubeFaces {
		base := uint32(i * 4)
		out = append(out, base, base+1, base+2, base, base+2, base+3)
	}
	return out
}
