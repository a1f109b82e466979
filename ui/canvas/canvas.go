// Package canvas provides the workspace surface: it hosts the viewport and
// masking engines, translating Fyne mouse input into engine pointer events
// and rendering the base image, tint overlay, and lasso preview.
package canvas

import (
	"image"
	"sync"

	"floorplan-studio/internal/input"
	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/internal/workspace"
	"floorplan-studio/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// tintOpacity is the display strength of the white tint over hidden regions.
const tintOpacity = 0.5

// WorkspaceCanvas is the interactive preview surface.
//
// Engine state is single-writer; because Fyne input, rendering, and loader
// completions arrive on different goroutines, every engine access goes
// through mu. The Dispatch method is handed to the image loader so decode
// completions take the same lock.
type WorkspaceCanvas struct {
	widget.BaseWidget

	mu sync.Mutex
	ws *workspace.Workspace

	raster *fynecanvas.Raster

	nextPointerID int
	activeID      int
	lastPos       geometry.Point2D
	gestureLive   bool
}

// New creates a workspace canvas around the given workspace.
func New(ws *workspace.Workspace) *WorkspaceCanvas {
	wc := &WorkspaceCanvas{ws: ws, activeID: -1}
	wc.raster = fynecanvas.NewRaster(wc.draw)
	wc.raster.ScaleMode = fynecanvas.ImageScalePixels

	ws.Masks().OnMaskChanged(func(string) {
		wc.raster.Refresh()
	})
	ws.Viewport().OnTransform(func(viewport.State) {
		wc.raster.Refresh()
	})

	wc.ExtendBaseWidget(wc)
	return wc
}

// Dispatch runs fn under the same lock as event handling. Handed to the
// image loader so decode completions stay serialized with pointer input.
func (wc *WorkspaceCanvas) Dispatch(fn func()) {
	wc.mu.Lock()
	fn()
	wc.mu.Unlock()
	wc.raster.Refresh()
}

// SetTool arms a tool on the workspace.
func (wc *WorkspaceCanvas) SetTool(tool input.Tool) {
	wc.mu.Lock()
	wc.ws.SetTool(tool)
	wc.mu.Unlock()
	wc.raster.Refresh()
}

// SetImages forwards the reactive image list.
func (wc *WorkspaceCanvas) SetImages(images []mask.ImageRef) {
	wc.mu.Lock()
	wc.ws.SetImages(images)
	wc.mu.Unlock()
	wc.raster.Refresh()
}

// SetSelected forwards the selected image id.
func (wc *WorkspaceCanvas) SetSelected(id string) {
	wc.mu.Lock()
	wc.ws.SetSelected(id)
	wc.mu.Unlock()
	wc.raster.Refresh()
}

// ResetView restores the identity viewport.
func (wc *WorkspaceCanvas) ResetView() {
	wc.mu.Lock()
	wc.ws.Viewport().Reset()
	wc.mu.Unlock()
	wc.raster.Refresh()
}

// Teardown force-cancels any in-progress gesture. Call before discarding
// the canvas.
func (wc *WorkspaceCanvas) Teardown() {
	wc.mu.Lock()
	wc.ws.Teardown()
	wc.gestureLive = false
	wc.activeID = -1
	wc.mu.Unlock()
}

// MouseDown starts a gesture with a fresh synthetic pointer id.
func (wc *WorkspaceCanvas) MouseDown(ev *desktop.MouseEvent) {
	pos := pointOf(ev.Position)

	wc.mu.Lock()
	wc.nextPointerID++
	id := wc.nextPointerID
	handled := wc.ws.HandlePointer(input.PointerEvent{
		Kind:   input.KindDown,
		ID:     id,
		Button: mapButton(ev.Button),
		Pos:    pos,
	})
	if handled {
		wc.activeID = id
		wc.gestureLive = true
	}
	wc.lastPos = pos
	wc.mu.Unlock()

	if handled {
		wc.raster.Refresh()
	}
}

// MouseUp ends the active gesture.
func (wc *WorkspaceCanvas) MouseUp(ev *desktop.MouseEvent) {
	wc.pointerUp(pointOf(ev.Position))
}

// Dragged tracks pointer movement during a drag.
func (wc *WorkspaceCanvas) Dragged(ev *fyne.DragEvent) {
	wc.pointerMove(pointOf(ev.Position))
}

// DragEnd ends the gesture at the last known position. Fyne reports drag end
// without coordinates; the engines coalesce the final point on pointer-up
// anyway.
func (wc *WorkspaceCanvas) DragEnd() {
	wc.mu.Lock()
	pos := wc.lastPos
	wc.mu.Unlock()
	wc.pointerUp(pos)
}

// MouseIn implements desktop.Hoverable.
func (wc *WorkspaceCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseMoved tracks pointer movement outside drags.
func (wc *WorkspaceCanvas) MouseMoved(ev *desktop.MouseEvent) {
	wc.pointerMove(pointOf(ev.Position))
}

// MouseOut implements desktop.Hoverable.
func (wc *WorkspaceCanvas) MouseOut() {}

// Scrolled zooms the viewport, anchored at the cursor.
func (wc *WorkspaceCanvas) Scrolled(ev *fyne.ScrollEvent) {
	size := wc.Size()

	wc.mu.Lock()
	wc.ws.HandleWheel(input.WheelEvent{
		// Fyne's wheel-up is positive; the engine follows the convention
		// that negative deltas zoom in.
		DeltaY: -float64(ev.Scrolled.DY) * 4,
		Pos:    pointOf(ev.Position),
	}, geometry.Size{Width: float64(size.Width), Height: float64(size.Height)})
	wc.mu.Unlock()

	wc.raster.Refresh()
}

func (wc *WorkspaceCanvas) pointerMove(pos geometry.Point2D) {
	wc.mu.Lock()
	wc.lastPos = pos
	live := wc.gestureLive
	if live {
		wc.ws.HandlePointer(input.PointerEvent{
			Kind:   input.KindMove,
			ID:     wc.activeID,
			Button: input.ButtonPrimary,
			Pos:    pos,
		})
	}
	wc.mu.Unlock()

	if live {
		wc.raster.Refresh()
	}
}

func (wc *WorkspaceCanvas) pointerUp(pos geometry.Point2D) {
	wc.mu.Lock()
	if !wc.gestureLive {
		wc.mu.Unlock()
		return
	}
	wc.ws.HandlePointer(input.PointerEvent{
		Kind:   input.KindUp,
		ID:     wc.activeID,
		Button: input.ButtonPrimary,
		Pos:    pos,
	})
	wc.gestureLive = false
	wc.activeID = -1
	wc.mu.Unlock()

	wc.raster.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (wc *WorkspaceCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(wc.raster)
}

func pointOf(p fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
}

func mapButton(b desktop.MouseButton) input.Button {
	switch b {
	case desktop.MouseButtonPrimary:
		return input.ButtonPrimary
	case desktop.MouseButtonSecondary:
		return input.ButtonSecondary
	default:
		return input.ButtonOther
	}
}

var (
	_ fyne.Widget       = (*WorkspaceCanvas)(nil)
	_ fyne.Draggable    = (*WorkspaceCanvas)(nil)
	_ fyne.Scrollable   = (*WorkspaceCanvas)(nil)
	_ desktop.Mouseable = (*WorkspaceCanvas)(nil)
	_ desktop.Hoverable = (*WorkspaceCanvas)(nil)
)

// draw renders the composited preview: base image under the viewport
// transform, tint overlay above it, lasso preview on top.
func (wc *WorkspaceCanvas) draw(w, h int) image.Image {
	wc.mu.Lock()
	defer wc.mu.Unlock()

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	fillBackground(out)

	base := wc.ws.Masks().BaseImage("")
	if base == nil || w <= 0 || h <= 0 {
		return out
	}

	srcBounds := base.Bounds()
	nw, nh := srcBounds.Dx(), srcBounds.Dy()
	layoutW, layoutH := fitContain(nw, nh, w, h)
	if layoutW <= 0 || layoutH <= 0 {
		return out
	}
	wc.ws.SetLayoutSize(geometry.Size{Width: layoutW, Height: layoutH})

	tint := wc.ws.Masks().TintOverlay("")
	st := wc.ws.Viewport().State()

	wc.compositeBase(out, base, tint, st, layoutW, layoutH, nw, nh)

	if preview := wc.ws.Masks().LassoPreview(); preview != nil {
		drawLassoPreview(out, preview)
	}
	return out
}
