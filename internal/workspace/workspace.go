// Package workspace arbitrates between the viewport and masking engines.
// The host surface forwards raw pointer and wheel input here; the armed tool
// decides which engine consumes it. Mask tools route to the masking engine,
// anything else pans the viewport.
package workspace

import (
	"floorplan-studio/internal/imageload"
	"floorplan-studio/internal/input"
	"floorplan-studio/internal/mask"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/pkg/geometry"
)

// Workspace wires the two engines to a host surface.
type Workspace struct {
	view  *viewport.Engine
	masks *mask.Engine
	tool  input.Tool
}

// New creates a workspace with fresh engines, loading images through loader.
func New(loader imageload.Loader) *Workspace {
	view := viewport.NewEngine()
	return &Workspace{
		view:  view,
		masks: mask.NewEngine(view, loader),
	}
}

// Viewport returns the viewport engine.
func (w *Workspace) Viewport() *viewport.Engine {
	return w.view
}

// Masks returns the masking engine.
func (w *Workspace) Masks() *mask.Engine {
	return w.masks
}

// Tool returns the armed tool.
func (w *Workspace) Tool() input.Tool {
	return w.tool
}

// SetTool arms a tool. Switching cancels any in-progress lasso.
func (w *Workspace) SetTool(tool input.Tool) {
	w.tool = tool
	w.masks.SetTool(tool)
}

// SetImages reconciles the reactive image list. An empty list also resets
// the viewport, since there is nothing left to look at.
func (w *Workspace) SetImages(images []mask.ImageRef) {
	w.masks.Reconcile(images)
	if len(images) == 0 {
		w.view.Reset()
	}
}

// SetSelected changes the selected image.
func (w *Workspace) SetSelected(id string) {
	w.masks.SetSelected(id)
}

// SetLayoutSize forwards the displayed layout size of the image element.
func (w *Workspace) SetLayoutSize(size geometry.Size) {
	w.masks.SetLayoutSize(size)
}

// HandlePointer routes one pointer event to whichever engine the armed tool
// selects. Returns false when neither engine consumed it.
func (w *Workspace) HandlePointer(ev input.PointerEvent) bool {
	if w.tool.IsMask() {
		return w.masks.HandlePointer(ev)
	}

	switch ev.Kind {
	case input.KindDown:
		return w.view.BeginPan(ev.ID, ev.Button, ev.Pos)
	case input.KindMove:
		if !w.view.Panning() {
			return false
		}
		w.view.UpdatePan(ev.ID, ev.Pos)
		return true
	case input.KindUp:
		if !w.view.Panning() {
			return false
		}
		w.view.EndPan(ev.ID)
		return true
	case input.KindCancel:
		w.view.CancelPan()
		return true
	}
	return false
}

// HandleWheel applies a zoom anchored at the cursor. A zero-sized preview
// surface yields a no-op.
func (w *Workspace) HandleWheel(ev input.WheelEvent, surface geometry.Size) {
	if surface.Width <= 0 || surface.Height <= 0 {
		return
	}
	w.view.Zoom(ev)
}

// CanUndo reports whether an undo step is available. Mask history is not
// recorded, so this is always false; the toolbar shows a disabled control.
func (w *Workspace) CanUndo() bool {
	return false
}

// Teardown force-cancels any in-progress gesture so no captured pointer
// outlives the surface.
func (w *Workspace) Teardown() {
	w.masks.ForceCancel()
	w.view.CancelPan()
}
