package mask

import (
	"errors"
	"image"
	"testing"
	"time"

	"floorplan-studio/internal/imageload"
	"floorplan-studio/internal/input"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLoader delivers canned bitmaps synchronously, standing in for the async
// fetch+decode pipeline.
type stubLoader struct {
	images map[string]image.Image
}

func (l *stubLoader) Load(id, url string, deliver func(imageload.Result)) {
	img, ok := l.images[url]
	if !ok {
		deliver(imageload.Result{ID: id, Err: errors.New("no such image")})
		return
	}
	deliver(imageload.Result{ID: id, Image: img})
}

// newTestEngine builds an engine with one 800x600 image selected, displayed in
// a 400x300 layout under an identity viewport, erase tool armed.
func newTestEngine(t *testing.T) (*Engine, *viewport.Engine) {
	t.Helper()

	view := viewport.NewEngine()
	loader := &stubLoader{images: map[string]image.Image{
		"plan-a.png": image.NewRGBA(image.Rect(0, 0, 800, 600)),
	}}
	e := NewEngine(view, loader)

	e.Reconcile([]ImageRef{{ID: "a", URL: "plan-a.png"}})
	e.SetSelected("a")
	e.SetTool(input.ToolErase)
	e.SetLayoutSize(geometry.Size{Width: 400, Height: 300})
	return e, view
}

// drawLasso plays a full down/move/up square gesture in display space.
func drawLasso(t *testing.T, e *Engine, id int, pts []geometry.Point2D) {
	t.Helper()
	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: id, Button: input.ButtonPrimary, Pos: pts[0],
	}))
	for _, p := range pts[1:] {
		e.HandlePointer(input.PointerEvent{Kind: input.KindMove, ID: id, Pos: p})
	}
	e.HandlePointer(input.PointerEvent{Kind: input.KindUp, ID: id, Pos: pts[len(pts)-1]})
}

var displaySquare = []geometry.Point2D{
	{X: 100, Y: 100}, {X: 160, Y: 100}, {X: 160, Y: 160}, {X: 100, Y: 160},
}

func TestLoadPopulatesVisibleMask(t *testing.T) {
	e, _ := newTestEngine(t)

	raster := e.MaskRaster("a")
	require.NotNil(t, raster)
	assert.Equal(t, 800, raster.Width)
	assert.Equal(t, 600, raster.Height)
	for _, v := range raster.Pix[:100] {
		require.EqualValues(t, MaskVisible, v)
	}

	boolMask := e.BooleanMask("a")
	require.Len(t, boolMask, 800*600)
	assert.Zero(t, boolMask[300*800+250], "freshly loaded image is fully visible")

	assert.Equal(t, 1, e.OverlayVersion(), "decode populates the overlay once")
}

func TestEraseMapsDisplayToImagePixels(t *testing.T) {
	e, _ := newTestEngine(t)

	// Display (100,100)-(160,160) on the 400x300 layout of the 800x600 image
	// covers image pixels (200,200)-(320,320).
	drawLasso(t, e, 1, displaySquare)

	boolMask := e.BooleanMask("a")
	require.NotNil(t, boolMask)
	assert.EqualValues(t, 1, boolMask[250*800+250], "inside the erased square")
	assert.EqualValues(t, 1, boolMask[310*800+210], "inside near the edge")
	assert.EqualValues(t, 0, boolMask[250*800+190], "left of the erased square")
	assert.EqualValues(t, 0, boolMask[190*800+250], "above the erased square")
	assert.EqualValues(t, 0, boolMask[330*800+330], "past the far corner")

	assert.Equal(t, 2, e.OverlayVersion(), "commit bumps the version")
}

func TestEraseRespectsViewportOffset(t *testing.T) {
	e, view := newTestEngine(t)

	// Pan the view by (40,30); display points now land 40,30 short in layout.
	require.True(t, view.BeginPan(9, input.ButtonPrimary, geometry.Point2D{}))
	view.UpdatePan(9, geometry.Point2D{X: 40, Y: 30})
	view.EndPan(9)

	drawLasso(t, e, 1, []geometry.Point2D{
		{X: 140, Y: 130}, {X: 200, Y: 130}, {X: 200, Y: 190}, {X: 140, Y: 190},
	})

	// Same image region as the un-panned square gesture.
	boolMask := e.BooleanMask("a")
	require.NotNil(t, boolMask)
	assert.EqualValues(t, 1, boolMask[250*800+250])
	assert.EqualValues(t, 0, boolMask[250*800+190])
}

func TestRestoreUndoesErase(t *testing.T) {
	e, _ := newTestEngine(t)

	drawLasso(t, e, 1, displaySquare)
	require.EqualValues(t, 1, e.BooleanMask("a")[250*800+250])

	e.SetTool(input.ToolRestore)
	// Restore a larger region fully covering the erased square.
	drawLasso(t, e, 2, []geometry.Point2D{
		{X: 90, Y: 90}, {X: 170, Y: 90}, {X: 170, Y: 170}, {X: 90, Y: 170},
	})

	boolMask := e.BooleanMask("a")
	for i, v := range boolMask {
		require.Zero(t, v, "pixel %d still hidden after restore", i)
	}
}

func TestShortPathCommitsNothing(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.OverlayVersion()

	// Down and up with no movement: one vertex, no enclosed area.
	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))
	e.HandlePointer(input.PointerEvent{
		Kind: input.KindUp, ID: 1, Pos: geometry.Point2D{X: 100, Y: 100},
	})

	assert.Equal(t, before, e.OverlayVersion(), "sub-3-vertex paths leave the mask untouched")
	assert.EqualValues(t, 0, e.BooleanMask("a")[250*800+250])
}

func TestSingleGestureAtATime(t *testing.T) {
	e, _ := newTestEngine(t)

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))
	assert.False(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 2, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 120, Y: 120},
	}), "second pointer down is refused mid-gesture")

	// Moves for the stranger pointer fall through.
	assert.False(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindMove, ID: 2, Pos: geometry.Point2D{X: 130, Y: 130},
	}))
}

func TestLassoSuspendsPanning(t *testing.T) {
	e, view := newTestEngine(t)

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))
	assert.False(t, view.BeginPan(2, input.ButtonPrimary, geometry.Point2D{}),
		"viewport refuses pans while a lasso is in progress")

	e.HandlePointer(input.PointerEvent{
		Kind: input.KindUp, ID: 1, Pos: geometry.Point2D{X: 100, Y: 100},
	})
	assert.True(t, view.BeginPan(2, input.ButtonPrimary, geometry.Point2D{}),
		"panning resumes once the lasso ends")
}

func TestDownRefusedWhilePanning(t *testing.T) {
	e, view := newTestEngine(t)

	require.True(t, view.BeginPan(5, input.ButtonPrimary, geometry.Point2D{}))
	assert.False(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))
}

func TestCancelDiscardsPath(t *testing.T) {
	e, view := newTestEngine(t)
	before := e.OverlayVersion()

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary, Pos: displaySquare[0],
	}))
	for _, p := range displaySquare[1:] {
		e.HandlePointer(input.PointerEvent{Kind: input.KindMove, ID: 1, Pos: p})
	}
	require.NotNil(t, e.LassoPreview())

	e.HandlePointer(input.PointerEvent{Kind: input.KindCancel, ID: 1, Pos: displaySquare[3]})

	assert.Nil(t, e.LassoPreview())
	assert.Equal(t, before, e.OverlayVersion())
	assert.EqualValues(t, 0, e.BooleanMask("a")[250*800+250])
	assert.True(t, view.BeginPan(2, input.ButtonPrimary, geometry.Point2D{}),
		"cancellation resumes panning")
}

func TestToolSwitchCancelsGesture(t *testing.T) {
	e, _ := newTestEngine(t)

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))
	e.SetTool(input.ToolRestore)
	assert.Nil(t, e.LassoPreview())
}

func TestTimeSamplingAppendsSlowMoves(t *testing.T) {
	e, _ := newTestEngine(t)

	clock := time.Unix(100, 0)
	e.SetClock(func() time.Time { return clock })

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))

	// Sub-distance-gate jitter inside the time window amends in place.
	e.HandlePointer(input.PointerEvent{
		Kind: input.KindMove, ID: 1, Pos: geometry.Point2D{X: 100.2, Y: 100},
	})
	require.Len(t, e.LassoPreview().Points, 1)

	// The same jitter past the time gate appends.
	clock = clock.Add(50 * time.Millisecond)
	e.HandlePointer(input.PointerEvent{
		Kind: input.KindMove, ID: 1, Pos: geometry.Point2D{X: 100.4, Y: 100},
	})
	require.Len(t, e.LassoPreview().Points, 2)

	// A large jump appends regardless of elapsed time.
	e.HandlePointer(input.PointerEvent{
		Kind: input.KindMove, ID: 1, Pos: geometry.Point2D{X: 140, Y: 100},
	})
	assert.Len(t, e.LassoPreview().Points, 3)
}

func TestReconcileDiffsImageList(t *testing.T) {
	view := viewport.NewEngine()
	loader := &stubLoader{images: map[string]image.Image{
		"a.png": image.NewRGBA(image.Rect(0, 0, 100, 100)),
		"b.png": image.NewRGBA(image.Rect(0, 0, 100, 100)),
		"c.png": image.NewRGBA(image.Rect(0, 0, 100, 100)),
	}}
	e := NewEngine(view, loader)
	e.SetTool(input.ToolErase)
	e.SetLayoutSize(geometry.Size{Width: 100, Height: 100})

	e.Reconcile([]ImageRef{{ID: "a", URL: "a.png"}, {ID: "b", URL: "b.png"}})
	e.SetSelected("b")

	// Hide a region on b so survival is observable.
	drawLasso(t, e, 1, []geometry.Point2D{
		{X: 10, Y: 10}, {X: 40, Y: 10}, {X: 40, Y: 40}, {X: 10, Y: 40},
	})
	require.EqualValues(t, 1, e.BooleanMask("b")[20*100+20])

	e.Reconcile([]ImageRef{{ID: "b", URL: "b.png"}, {ID: "c", URL: "c.png"}})

	assert.Nil(t, e.MaskRaster("a"), "dropped image loses its asset")
	assert.EqualValues(t, 1, e.BooleanMask("b")[20*100+20], "surviving image keeps its mask")
	require.NotNil(t, e.MaskRaster("c"), "new image gets a fresh asset")
	assert.EqualValues(t, 0, e.BooleanMask("c")[20*100+20])
}

func TestReconcileCancelsGestureOnDroppedImage(t *testing.T) {
	e, view := newTestEngine(t)

	require.True(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 100, Y: 100},
	}))

	e.Reconcile(nil)

	assert.Nil(t, e.LassoPreview())
	assert.True(t, view.BeginPan(2, input.ButtonPrimary, geometry.Point2D{}))
}

func TestFailedLoadDropsAsset(t *testing.T) {
	view := viewport.NewEngine()
	e := NewEngine(view, &stubLoader{})

	e.Reconcile([]ImageRef{{ID: "x", URL: "missing.png"}})
	assert.Nil(t, e.MaskRaster("x"))
	assert.Nil(t, e.BaseImage("x"))
	assert.Zero(t, e.OverlayVersion())
}

func TestDownRefusedWithoutSelection(t *testing.T) {
	view := viewport.NewEngine()
	e := NewEngine(view, &stubLoader{images: map[string]image.Image{
		"a.png": image.NewRGBA(image.Rect(0, 0, 100, 100)),
	}})
	e.SetTool(input.ToolErase)
	e.SetLayoutSize(geometry.Size{Width: 100, Height: 100})
	e.Reconcile([]ImageRef{{ID: "a", URL: "a.png"}})

	assert.False(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 10, Y: 10},
	}), "no selected image, nothing to mask")

	e.SetSelected("a")
	e.SetLayoutSize(geometry.Size{})
	assert.False(t, e.HandlePointer(input.PointerEvent{
		Kind: input.KindDown, ID: 1, Button: input.ButtonPrimary,
		Pos: geometry.Point2D{X: 10, Y: 10},
	}), "zero layout has no display-to-image mapping")
}

func TestApplyMask(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.OverlayVersion()

	pix := make([]uint8, 800*600)
	for i := range pix {
		pix[i] = MaskVisible
	}
	pix[300*800+400] = MaskHidden

	require.True(t, e.ApplyMask("a", pix))
	assert.Equal(t, before+1, e.OverlayVersion())
	assert.EqualValues(t, 1, e.BooleanMask("a")[300*800+400])
	assert.EqualValues(t, 0, e.BooleanMask("a")[300*800+401])

	assert.False(t, e.ApplyMask("a", pix[:100]), "dimension mismatch is refused")
	assert.False(t, e.ApplyMask("nope", pix))
}

func TestMaskChangedCallback(t *testing.T) {
	view := viewport.NewEngine()
	loader := &stubLoader{images: map[string]image.Image{
		"a.png": image.NewRGBA(image.Rect(0, 0, 400, 300)),
	}}
	e := NewEngine(view, loader)

	var changed []string
	e.OnMaskChanged(func(id string) { changed = append(changed, id) })

	e.Reconcile([]ImageRef{{ID: "a", URL: "a.png"}})
	e.SetSelected("a")
	e.SetTool(input.ToolErase)
	e.SetLayoutSize(geometry.Size{Width: 400, Height: 300})
	require.Equal(t, []string{"a"}, changed, "decode population notifies")

	drawLasso(t, e, 1, displaySquare)
	assert.Equal(t, []string{"a", "a"}, changed, "commit notifies")
}

func TestMaskRasterReturnsCopy(t *testing.T) {
	e, _ := newTestEngine(t)

	raster := e.MaskRaster("a")
	require.NotNil(t, raster)
	raster.Pix[0] = MaskHidden

	assert.EqualValues(t, 0, e.BooleanMask("a")[0], "mutating the copy leaves the engine untouched")
}
