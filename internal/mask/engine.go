// Package mask implements the freehand masking engine: per-image alpha masks
// painted by lasso gestures, with a derived tint overlay for display.
//
// The engine owns every mask and tint raster exclusively. It converts pointer
// positions from preview/display space to image-pixel space by undoing the
// viewport transform and the image element's layout scale, samples lasso
// paths with a dual distance/time policy, and rasterizes committed paths into
// the mask with even-odd polygon fill.
package mask

import (
	"log"
	"time"

	"floorplan-studio/internal/imageload"
	"floorplan-studio/internal/input"
	"floorplan-studio/internal/viewport"
	"floorplan-studio/pkg/geometry"
)

const (
	// minSampleDistSq is the squared distance a pointer must travel before a
	// new lasso vertex is appended rather than the last one amended.
	minSampleDistSq = 4.0

	// sampleInterval is the wall-clock fallback: a vertex is appended after
	// this much time even if the pointer moved less than the distance gate.
	sampleInterval = 40 * time.Millisecond
)

// Preview describes the in-progress lasso for the host to draw.
type Preview struct {
	Tool   input.Tool
	Points []geometry.Point2D // display space
}

// lasso is the single in-progress gesture. Both point sequences stay in
// lockstep: imagePts feed the commit, displayPts feed the live preview.
type lasso struct {
	pointerID  int
	tool       input.Tool
	imageID    string
	imagePts   []geometry.Point2D
	displayPts []geometry.Point2D
	lastSample time.Time
}

// Engine owns all per-image mask state and the lasso gesture machine.
// Not safe for concurrent use; all calls must come from the host's event
// dispatch path.
type Engine struct {
	view   *viewport.Engine
	loader imageload.Loader

	assets     map[string]*Asset
	selected   string
	tool       input.Tool
	layoutSize geometry.Size
	gesture    *lasso
	version    int

	onMaskChanged func(imageID string)
	now           func() time.Time
}

// NewEngine creates a masking engine reading viewport state from view and
// fetching image bitmaps through loader.
func NewEngine(view *viewport.Engine, loader imageload.Loader) *Engine {
	return &Engine{
		view:   view,
		loader: loader,
		assets: make(map[string]*Asset),
		now:    time.Now,
	}
}

// OnMaskChanged sets a callback invoked whenever an image's mask or tint
// raster changes, including initial population after decode.
func (e *Engine) OnMaskChanged(fn func(imageID string)) {
	e.onMaskChanged = fn
}

// SetClock overrides the sampling clock. Tests use this to drive the
// time-based half of the sampling policy deterministically.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Reconcile diffs the host's image list against the previous one: assets for
// ids no longer present are dropped, newly-present ids get an inert asset and
// an asynchronous decode. Existing assets and their masks are untouched.
func (e *Engine) Reconcile(images []ImageRef) {
	present := make(map[string]bool, len(images))
	for _, ref := range images {
		present[ref.ID] = true
	}

	for id := range e.assets {
		if !present[id] {
			if e.gesture != nil && e.gesture.imageID == id {
				e.ForceCancel()
			}
			delete(e.assets, id)
		}
	}

	for _, ref := range images {
		if _, ok := e.assets[ref.ID]; ok {
			continue
		}
		e.assets[ref.ID] = &Asset{id: ref.ID, url: ref.URL}
		e.loader.Load(ref.ID, ref.URL, e.loaded)
	}
}

// loaded consumes a decode completion. A failed decode removes the asset; a
// completion for an id that was reconciled away in the meantime is dropped.
func (e *Engine) loaded(res imageload.Result) {
	asset, ok := e.assets[res.ID]
	if !ok || asset.Ready() {
		return
	}
	if res.Err != nil {
		log.Printf("image %s failed to load: %v", res.ID, res.Err)
		delete(e.assets, res.ID)
		return
	}
	asset.populate(res.Image)
	e.version++
	if e.onMaskChanged != nil {
		e.onMaskChanged(res.ID)
	}
}

// SetSelected changes the selected image, force-cancelling any in-progress
// lasso first.
func (e *Engine) SetSelected(id string) {
	if e.selected == id {
		return
	}
	e.ForceCancel()
	e.selected = id
}

// SetTool changes the armed tool, force-cancelling any in-progress lasso.
func (e *Engine) SetTool(tool input.Tool) {
	if e.tool == tool {
		return
	}
	e.ForceCancel()
	e.tool = tool
}

// SetLayoutSize records the displayed layout size of the image element,
// before the viewport transform. Needed to undo the layout scale when
// mapping display coordinates to image pixels.
func (e *Engine) SetLayoutSize(size geometry.Size) {
	e.layoutSize = size
}

// displayToImage maps a display-space point to image-pixel space for the
// given asset by undoing the viewport affine and then the layout scale.
// Returns false when no mapping exists (inert asset, zero layout).
func (e *Engine) displayToImage(asset *Asset, p geometry.Point2D) (geometry.Point2D, bool) {
	if asset == nil || !asset.Ready() || e.layoutSize.Width <= 0 || e.layoutSize.Height <= 0 {
		return geometry.Point2D{}, false
	}
	layoutPt, ok := e.view.State().Unapply(p)
	if !ok {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{
		X: layoutPt.X * float64(asset.width) / e.layoutSize.Width,
		Y: layoutPt.Y * float64(asset.height) / e.layoutSize.Height,
	}, true
}

// HandlePointer runs the lasso state machine for one pointer event. Returns
// false when the event is not handled and should fall through to the host's
// default behavior.
func (e *Engine) HandlePointer(ev input.PointerEvent) bool {
	switch ev.Kind {
	case input.KindDown:
		return e.pointerDown(ev)
	case input.KindMove:
		return e.pointerMove(ev)
	case input.KindUp:
		return e.pointerUp(ev)
	case input.KindCancel:
		return e.pointerCancel(ev)
	}
	return false
}

func (e *Engine) pointerDown(ev input.PointerEvent) bool {
	if !e.tool.IsMask() || ev.Button != input.ButtonPrimary || e.gesture != nil || e.selected == "" {
		return false
	}
	if e.view.Panning() {
		return false
	}
	asset := e.assets[e.selected]
	imgPt, ok := e.displayToImage(asset, ev.Pos)
	if !ok {
		return false
	}

	e.view.Suspend()
	e.gesture = &lasso{
		pointerID:  ev.ID,
		tool:       e.tool,
		imageID:    e.selected,
		imagePts:   []geometry.Point2D{imgPt},
		displayPts: []geometry.Point2D{ev.Pos},
		lastSample: e.now(),
	}
	return true
}

func (e *Engine) pointerMove(ev input.PointerEvent) bool {
	if e.gesture == nil || e.gesture.pointerID != ev.ID {
		return false
	}
	asset := e.assets[e.gesture.imageID]
	imgPt, ok := e.displayToImage(asset, ev.Pos)
	if !ok {
		return true
	}
	e.record(imgPt, ev.Pos)
	return true
}

func (e *Engine) pointerUp(ev input.PointerEvent) bool {
	if e.gesture == nil || e.gesture.pointerID != ev.ID {
		return false
	}
	asset := e.assets[e.gesture.imageID]
	if imgPt, ok := e.displayToImage(asset, ev.Pos); ok {
		e.record(imgPt, ev.Pos)
	}
	e.commit(asset)
	e.cleanup()
	return true
}

func (e *Engine) pointerCancel(ev input.PointerEvent) bool {
	if e.gesture == nil || e.gesture.pointerID != ev.ID {
		return false
	}
	e.cleanup()
	return true
}

// ForceCancel discards any in-progress lasso without rasterizing. Invoked on
// tool switches, image switches, and host teardown so no captured pointer or
// stale gesture survives.
func (e *Engine) ForceCancel() {
	if e.gesture == nil {
		return
	}
	e.cleanup()
}

func (e *Engine) cleanup() {
	e.gesture = nil
	e.view.Resume()
}

// record applies the append-or-coalesce sampling policy: append when the
// pointer advanced past the distance gate or the time gate elapsed, otherwise
// amend the last vertex in place so the final commit still tracks the cursor.
func (e *Engine) record(imgPt, displayPt geometry.Point2D) {
	g := e.gesture
	last := g.imagePts[len(g.imagePts)-1]
	now := e.now()

	if imgPt.DistanceSq(last) > minSampleDistSq || now.Sub(g.lastSample) >= sampleInterval {
		g.imagePts = append(g.imagePts, imgPt)
		g.displayPts = append(g.displayPts, displayPt)
		g.lastSample = now
		return
	}
	g.imagePts[len(g.imagePts)-1] = imgPt
	g.displayPts[len(g.displayPts)-1] = displayPt
}

// commit rasterizes the finished path into the target mask. Paths with fewer
// than 3 vertices enclose no area and are discarded.
func (e *Engine) commit(asset *Asset) {
	g := e.gesture
	if asset == nil || !asset.Ready() || len(g.imagePts) < 3 {
		return
	}

	value := uint8(MaskHidden)
	if g.tool == input.ToolRestore {
		value = MaskVisible
	}
	geometry.FillPolygon(asset.mask, asset.width, asset.height, g.imagePts, value)
	asset.refreshTint()
	e.version++
	if e.onMaskChanged != nil {
		e.onMaskChanged(asset.id)
	}
}

// ApplyMask replaces the mask raster for the given id (or the selected image
// when empty) with externally processed pixel data of matching dimensions.
// This is the single entry point for tools like mask cleanup; the engine
// still owns the raster and the tint and version bookkeeping stay correct.
func (e *Engine) ApplyMask(id string, pix []uint8) bool {
	asset := e.resolve(id)
	if asset == nil || len(pix) != asset.width*asset.height {
		return false
	}
	copy(asset.mask, pix)
	asset.refreshTint()
	e.version++
	if e.onMaskChanged != nil {
		e.onMaskChanged(asset.id)
	}
	return true
}

// OverlayVersion returns a counter incremented on every mask mutation.
func (e *Engine) OverlayVersion() int {
	return e.version
}

// LassoPreview returns the in-progress path in display space, or nil when no
// gesture is active. The returned slice is a copy.
func (e *Engine) LassoPreview() *Preview {
	if e.gesture == nil {
		return nil
	}
	pts := make([]geometry.Point2D, len(e.gesture.displayPts))
	copy(pts, e.gesture.displayPts)
	return &Preview{Tool: e.gesture.tool, Points: pts}
}

// resolve returns the ready asset for id, or the selected image when id is
// empty. Nil when the asset doesn't exist or is still inert.
func (e *Engine) resolve(id string) *Asset {
	if id == "" {
		id = e.selected
	}
	asset := e.assets[id]
	if asset == nil || !asset.Ready() {
		return nil
	}
	return asset
}
