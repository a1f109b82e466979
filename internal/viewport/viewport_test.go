package viewport

import (
	"testing"
	"time"

	"floorplan-studio/internal/input"
	"floorplan-studio/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoomAnchorsCursor(t *testing.T) {
	e := NewEngine()
	cursor := geometry.Point2D{X: 320, Y: 240}

	before, ok := e.State().Unapply(cursor)
	require.True(t, ok)

	e.Zoom(input.WheelEvent{DeltaY: -240, Pos: cursor})
	require.Greater(t, e.State().Scale, 1.0, "negative delta zooms in")

	after, ok := e.State().Unapply(cursor)
	require.True(t, ok)

	// The layout point under the cursor is unchanged by the zoom.
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomAnchorHoldsAcrossGestures(t *testing.T) {
	e := NewEngine()

	// Pan away from identity first, then zoom at an off-center cursor.
	require.True(t, e.BeginPan(1, input.ButtonPrimary, geometry.Point2D{X: 0, Y: 0}))
	e.UpdatePan(1, geometry.Point2D{X: 37, Y: -12})
	e.EndPan(1)

	cursor := geometry.Point2D{X: 100, Y: 450}
	before, ok := e.State().Unapply(cursor)
	require.True(t, ok)

	e.Zoom(input.WheelEvent{DeltaY: 120, Pos: cursor})
	after, ok := e.State().Unapply(cursor)
	require.True(t, ok)

	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomClampsScale(t *testing.T) {
	e := NewEngine()
	cursor := geometry.Point2D{X: 10, Y: 10}

	for i := 0; i < 50; i++ {
		e.Zoom(input.WheelEvent{DeltaY: -1000, Pos: cursor})
	}
	assert.Equal(t, MaxScale, e.State().Scale)

	for i := 0; i < 100; i++ {
		e.Zoom(input.WheelEvent{DeltaY: 1000, Pos: cursor})
	}
	assert.Equal(t, MinScale, e.State().Scale)
}

func TestZoomAtClampIsNoop(t *testing.T) {
	e := NewEngine()
	for i := 0; i < 50; i++ {
		e.Zoom(input.WheelEvent{DeltaY: -1000, Pos: geometry.Point2D{}})
	}
	require.Equal(t, MaxScale, e.State().Scale)

	calls := 0
	e.OnTransform(func(State) { calls++ })
	offset := e.State().Offset

	e.Zoom(input.WheelEvent{DeltaY: -1000, Pos: geometry.Point2D{X: 55, Y: 55}})
	assert.Zero(t, calls, "no change published when scale stays clamped")
	assert.Equal(t, offset, e.State().Offset)
}

func TestPanMovesOffset(t *testing.T) {
	e := NewEngine()

	require.True(t, e.BeginPan(7, input.ButtonPrimary, geometry.Point2D{X: 100, Y: 100}))
	assert.True(t, e.Panning())

	e.UpdatePan(7, geometry.Point2D{X: 130, Y: 90})
	assert.Equal(t, geometry.Point2D{X: 30, Y: -10}, e.State().Offset)

	// Moves for another pointer are ignored mid-gesture.
	e.UpdatePan(8, geometry.Point2D{X: 500, Y: 500})
	assert.Equal(t, geometry.Point2D{X: 30, Y: -10}, e.State().Offset)

	e.EndPan(7)
	assert.False(t, e.Panning())
	assert.Equal(t, geometry.Point2D{X: 30, Y: -10}, e.State().Offset)

	// Ending again is harmless.
	e.EndPan(7)
	assert.False(t, e.Panning())
}

func TestPanRejections(t *testing.T) {
	e := NewEngine()

	assert.False(t, e.BeginPan(1, input.ButtonSecondary, geometry.Point2D{}),
		"secondary button never pans")

	require.True(t, e.BeginPan(1, input.ButtonPrimary, geometry.Point2D{}))
	assert.False(t, e.BeginPan(2, input.ButtonPrimary, geometry.Point2D{}),
		"only one pan gesture at a time")
	e.CancelPan()

	e.Suspend()
	assert.False(t, e.BeginPan(3, input.ButtonPrimary, geometry.Point2D{}),
		"suspended viewport refuses pans")
	e.Resume()
	assert.True(t, e.BeginPan(3, input.ButtonPrimary, geometry.Point2D{}))
}

func TestSuspendCancelsActivePan(t *testing.T) {
	e := NewEngine()
	require.True(t, e.BeginPan(1, input.ButtonPrimary, geometry.Point2D{}))

	e.Suspend()
	assert.False(t, e.Panning())
}

func TestPublishCoalescing(t *testing.T) {
	e := NewEngine()

	clock := time.Unix(0, 0)
	e.SetClock(func() time.Time { return clock })

	var published []State
	e.OnPublish(func(s State) { published = append(published, s) })
	var rendered int
	e.OnTransform(func(State) { rendered++ })

	require.True(t, e.BeginPan(1, input.ButtonPrimary, geometry.Point2D{}))

	// Ten moves within one frame window collapse to the first publish.
	for i := 1; i <= 10; i++ {
		clock = clock.Add(time.Millisecond)
		e.UpdatePan(1, geometry.Point2D{X: float64(i), Y: 0})
	}
	assert.Equal(t, 10, rendered, "render path sees every update")
	require.Len(t, published, 1)

	// Crossing the frame boundary publishes again.
	clock = clock.Add(20 * time.Millisecond)
	e.UpdatePan(1, geometry.Point2D{X: 11, Y: 0})
	require.Len(t, published, 2)

	// Gesture end force-publishes the final state.
	clock = clock.Add(time.Millisecond)
	e.UpdatePan(1, geometry.Point2D{X: 12, Y: 0})
	e.EndPan(1)
	require.Len(t, published, 3)
	assert.Equal(t, geometry.Point2D{X: 12, Y: 0}, published[2].Offset)
}

func TestPanActiveLifecycle(t *testing.T) {
	e := NewEngine()

	var transitions []bool
	e.OnPanActive(func(active bool) { transitions = append(transitions, active) })

	require.True(t, e.BeginPan(1, input.ButtonPrimary, geometry.Point2D{}))
	e.UpdatePan(1, geometry.Point2D{X: 5, Y: 5})
	e.EndPan(1)

	assert.Equal(t, []bool{true, false}, transitions)
}

func TestResetAndIsDefault(t *testing.T) {
	e := NewEngine()
	assert.True(t, e.IsDefault())

	e.Zoom(input.WheelEvent{DeltaY: -300, Pos: geometry.Point2D{X: 50, Y: 50}})
	assert.False(t, e.IsDefault())

	e.Reset()
	assert.True(t, e.IsDefault())
	assert.Equal(t, DefaultState(), e.State())
}

func TestStateRoundTrip(t *testing.T) {
	s := State{Scale: 2.5, Offset: geometry.Point2D{X: -40, Y: 17}}

	p := geometry.Point2D{X: 123, Y: 456}
	back, ok := s.Unapply(s.Apply(p))
	require.True(t, ok)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	_, ok = State{}.Unapply(p)
	assert.False(t, ok, "zero scale has no inverse")
}
