package picking_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-pick/common"
	"github.com/Carmen-Shannon/oxy-pick/engine/manipulator"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking"
	"github.com/Carmen-Shannon/oxy-pick/engine/picking/pickingtest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sceneViewport = common.Viewport{Width: 800, Height: 600}

func frameInput(cursor common.Point) picking.FrameInput {
	return picking.FrameInput{
		Cursor:     cursor,
		Viewport:   sceneViewport,
		View:       mgl32.Ident4(),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 800.0/600.0, 0.1, 100),
		Target:     pickingtest.Target("host"),
		Now:        t0,
	}
}

func TestPickPassDepthConvention(t *testing.T) {
	for _, conv := range []picking.DepthConvention{picking.DepthStandard, picking.DepthReversed} {
		t.Run(conv.String(), func(t *testing.T) {
			// The host runs the opposite convention so a leaked pick state is visible.
			hostConv := picking.DepthReversed
			if conv == picking.DepthReversed {
				hostConv = picking.DepthStandard
			}
			host := pickingtest.HostState(pickingtest.Target("host"), sceneViewport, hostConv)
			dev := pickingtest.NewDevice(host)
			pr := picking.NewPickRenderer(pickingtest.NewGeometry(3))

			n, err := pr.Render(dev, pickingtest.Target("pick"), frameInput(common.Point{X: 400, Y: 300}), conv)
			require.NoError(t, err)
			assert.Equal(t, 3, n)

			clears := dev.Clears()
			require.Len(t, clears, 1)
			assert.Equal(t, picking.SentinelColor, clears[0].Color)
			assert.Equal(t, conv.FarDepth(), clears[0].Depth)
			assert.Equal(t, conv.Compare(), clears[0].State.DepthCompare)
			assert.Equal(t, conv.FarDepth(), clears[0].State.ClearDepth)

			if conv == picking.DepthReversed {
				assert.Equal(t, float32(0), clears[0].Depth)
				assert.Equal(t, picking.CompareGreater, clears[0].State.DepthCompare)
			} else {
				assert.Equal(t, float32(1), clears[0].Depth)
				assert.Equal(t, picking.CompareLess, clears[0].State.DepthCompare)
			}

			assert.Equal(t, host, dev.PassState(), "pass state restored")
		})
	}
}

func TestPickPassDrawsEveryIdentity(t *testing.T) {
	dev := pickingtest.NewDevice(pickingtest.HostState(pickingtest.Target("host"), sceneViewport, picking.DepthStandard))
	pr := picking.NewPickRenderer(pickingtest.NewGeometry(3))

	_, err := pr.Render(dev, pickingtest.Target("pick"), frameInput(common.Point{X: 10, Y: 10}), picking.DepthStandard)
	require.NoError(t, err)

	draws := dev.Draws()
	require.Len(t, draws, 3)
	for i, d := range draws {
		assert.Equal(t, picking.FillIdentity, d.Fill.Mode)
		assert.Equal(t, picking.Encode(manipulator.Identity(i)), d.Fill.Value)
		assert.Equal(t, picking.Target(pickingtest.Target("pick")), d.State.Target)
		assert.Equal(t, picking.PickViewport, d.State.Viewport)
		assert.True(t, d.State.DepthTest)
		assert.True(t, d.State.DepthWrite)
		assert.False(t, d.State.Blend)
	}
}

func TestPickPassTransformCentresCursor(t *testing.T) {
	in := frameInput(common.Point{X: 200, Y: 150})
	state := picking.PickState(pickingtest.Target("pick"), in, picking.DepthStandard)

	// A point the scene transform puts under the cursor lands at the centre of the pick target.
	ndcX, ndcY := common.CursorNDC(in.Cursor, in.Viewport)
	clip := common.PickMatrix(in.Cursor, in.Viewport).Mul4x1(mgl32.Vec4{ndcX, ndcY, 0.5, 1})
	assert.InDelta(t, 0, clip.X(), 1e-4)
	assert.InDelta(t, 0, clip.Y(), 1e-4)

	want := common.PickMatrix(in.Cursor, in.Viewport).Mul4(in.Projection.Mul4(in.View))
	assert.True(t, state.Transform.ApproxEqual(want))
}

func TestPickPassDrawsOccludersInSentinelColor(t *testing.T) {
	dev := pickingtest.NewDevice(pickingtest.HostState(pickingtest.Target("host"), sceneViewport, picking.DepthStandard))
	pr := picking.NewPickRenderer(pickingtest.NewGeometry(2).WithOccluders(2))

	n, err := pr.Render(dev, pickingtest.Target("pick"), frameInput(common.Point{X: 10, Y: 10}), picking.DepthStandard)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	draws := dev.Draws()
	require.Len(t, draws, 4)
	assert.Equal(t, pickingtest.Occluder(0), draws[2].Mesh)
	assert.Equal(t, picking.SentinelColor, draws[2].Fill.Value)
	assert.Equal(t, picking.SentinelColor, draws[3].Fill.Value)
}

func TestPickPassSkipsOffscreenCursor(t *testing.T) {
	host := pickingtest.HostState(pickingtest.Target("host"), sceneViewport, picking.DepthStandard)
	dev := pickingtest.NewDevice(host)
	pr := picking.NewPickRenderer(pickingtest.NewGeometry(3))

	n, err := pr.Render(dev, pickingtest.Target("pick"), frameInput(common.Point{X: -5, Y: 20}), picking.DepthStandard)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dev.Sets())
	assert.Empty(t, dev.Draws())
}

func TestPickPassStateFailure(t *testing.T) {
	dev := pickingtest.NewDevice(pickingtest.HostState(pickingtest.Target("host"), sceneViewport, picking.DepthStandard))
	dev.FailSetPassState(errors.New("unknown target"))
	pr := picking.NewPickRenderer(pickingtest.NewGeometry(2))

	n, err := pr.Render(dev, pickingtest.Target("pick"), frameInput(common.Point{X: 1, Y: 1}), picking.DepthStandard)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Empty(t, dev.Draws())
	assert.Len(t, dev.Attempts(), 2, "the restore is still attempted")
}

func TestPickPassStateFailureRestoresHostState(t *testing.T) {
	host := pickingtest.HostState(pickingtest.Target("host"), sceneViewport, picking.DepthStandard)
	dev := pickingtest.NewDevice(host)
	dev.FailNextSetPassState(errors.New("viewport rejected"))
	pr := picking.NewPickRenderer(pickingtest.NewGeometry(2))

	in := frameInput(common.Point{X: 1, Y: 1})
	_, err := pr.Render(dev, pickingtest.Target("pick"), in, picking.DepthStandard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewport rejected")

	assert.Equal(t, host, dev.PassState())
	assert.Equal(t, []picking.PassState{picking.PickState(pickingtest.Target("pick"), in, picking.DepthStandard), host}, dev.Attempts())
	assert.Empty(t, dev.Clears())
	assert.Empty(t, dev.Draws())
}

func TestSelection(t *testing.T) {
	all := picking.AllManipulators()
	assert.True(t, all.All())
	assert.True(t, all.Includes(0))
	assert.False(t, all.Includes(manipulator.Sentinel))

	one := picking.Only(2)
	assert.False(t, one.All())
	assert.True(t, one.Includes(2))
	assert.False(t, one.Includes(1))

	none := picking.Only(manipulator.Sentinel)
	assert.False(t, none.Includes(manipulator.Sentinel))
	var seen int
	pickingtest.NewGeometry(4).Meshes(none, func(manipulator.Identity, picking.Mesh) { seen++ })
	assert.Zero(t, seen)
}
