// Package viewport implements the pan/zoom transform applied to the preview
// surface. It owns a single affine view state (uniform scale plus offset),
// translates pointer drags into offset changes and wheel ticks into
// cursor-anchored scale changes, and publishes state to the host.
package viewport

import (
	"math"
	"time"

	"floorplan-studio/internal/input"
	"floorplan-studio/pkg/geometry"
)

const (
	// MinScale and MaxScale bound the zoom range.
	MinScale = 0.4
	MaxScale = 6.0

	// wheelResponse converts a wheel delta into an exponential scale factor.
	// A typical 100-unit tick yields roughly a 16% zoom step.
	wheelResponse = 0.0015

	// defaultEpsilon is the tolerance for IsDefault comparisons.
	defaultEpsilon = 1e-3

	// publishInterval coalesces high-frequency state publication to roughly
	// one update per display frame.
	publishInterval = 16 * time.Millisecond
)

// State is the affine transform applied to the displayed image:
// screen = Offset + Scale * layoutPoint.
type State struct {
	Scale  float64
	Offset geometry.Point2D
}

// DefaultState returns the identity view state.
func DefaultState() State {
	return State{Scale: 1}
}

// Apply maps a layout-space point to display space.
func (s State) Apply(p geometry.Point2D) geometry.Point2D {
	return p.Scale(s.Scale).Add(s.Offset)
}

// Unapply maps a display-space point back to layout space.
// Returns false if the scale is degenerate.
func (s State) Unapply(p geometry.Point2D) (geometry.Point2D, bool) {
	if s.Scale == 0 {
		return geometry.Point2D{}, false
	}
	return p.Sub(s.Offset).Scale(1 / s.Scale), true
}

// Transform returns the state as an affine matrix.
func (s State) Transform() geometry.AffineTransform {
	return geometry.Translation(s.Offset.X, s.Offset.Y).Compose(geometry.Scale(s.Scale, s.Scale))
}

// panSession records an in-progress drag gesture.
type panSession struct {
	pointerID int
	start     geometry.Point2D
	snapshot  geometry.Point2D
}

// Engine owns the view state and the single active pan gesture.
// It is not safe for concurrent use; all calls must come from the host's
// event dispatch path.
type Engine struct {
	state     State
	pan       *panSession
	suspended bool

	// onTransform is the low-latency render path, invoked on every change.
	onTransform func(State)
	// onPublish is the coalesced UI path, invoked at most once per frame
	// plus a trailing call with the final value of each gesture.
	onPublish func(State)
	// onPanActive is invoked when a pan gesture starts or ends.
	onPanActive func(bool)

	now         func() time.Time
	lastPublish time.Time
}

// NewEngine creates an engine with the identity view state.
func NewEngine() *Engine {
	return &Engine{
		state: DefaultState(),
		now:   time.Now,
	}
}

// State returns the current view state.
func (e *Engine) State() State {
	return e.state
}

// OnTransform sets the immediate per-change callback (render target path).
func (e *Engine) OnTransform(fn func(State)) {
	e.onTransform = fn
}

// OnPublish sets the frame-coalesced callback (UI state path).
func (e *Engine) OnPublish(fn func(State)) {
	e.onPublish = fn
}

// OnPanActive sets the pan lifecycle callback.
func (e *Engine) OnPanActive(fn func(bool)) {
	e.onPanActive = fn
}

// SetClock overrides the clock used for publish coalescing. Tests use this
// to make coalescing deterministic.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Suspend refuses new pan gestures until Resume. An active pan is cancelled.
// The masking engine suspends panning for the duration of a lasso gesture.
func (e *Engine) Suspend() {
	e.CancelPan()
	e.suspended = true
}

// Resume re-arms panning after Suspend.
func (e *Engine) Resume() {
	e.suspended = false
}

// BeginPan starts a pan gesture for the given pointer. Returns false when the
// event is not handled: non-primary button, panning suspended, or another pan
// already active.
func (e *Engine) BeginPan(pointerID int, button input.Button, start geometry.Point2D) bool {
	if button != input.ButtonPrimary || e.suspended || e.pan != nil {
		return false
	}
	e.pan = &panSession{
		pointerID: pointerID,
		start:     start,
		snapshot:  e.state.Offset,
	}
	if e.onPanActive != nil {
		e.onPanActive(true)
	}
	return true
}

// UpdatePan moves the viewport for the active pan gesture. Events for any
// other pointer id are silently ignored.
func (e *Engine) UpdatePan(pointerID int, current geometry.Point2D) {
	if e.pan == nil || e.pan.pointerID != pointerID {
		return
	}
	e.state.Offset = e.pan.snapshot.Add(current.Sub(e.pan.start))
	e.changed(false)
}

// EndPan finishes the active pan gesture. Safe to call when no gesture is
// active or for a non-matching pointer id.
func (e *Engine) EndPan(pointerID int) {
	if e.pan == nil || e.pan.pointerID != pointerID {
		return
	}
	e.finishPan()
}

// CancelPan unconditionally clears any active pan gesture. The offset keeps
// whatever value the last update produced. Idempotent.
func (e *Engine) CancelPan() {
	if e.pan == nil {
		return
	}
	e.finishPan()
}

func (e *Engine) finishPan() {
	e.pan = nil
	e.changed(true)
	if e.onPanActive != nil {
		e.onPanActive(false)
	}
}

// Panning reports whether a pan gesture is in progress.
func (e *Engine) Panning() bool {
	return e.pan != nil
}

// Zoom applies a wheel tick anchored at the cursor: the layout point under
// the cursor before the zoom stays under the cursor after it.
func (e *Engine) Zoom(ev input.WheelEvent) {
	factor := math.Exp(-ev.DeltaY * wheelResponse)
	newScale := clampScale(e.state.Scale * factor)
	if newScale == e.state.Scale {
		return
	}

	ratio := newScale / e.state.Scale
	e.state.Offset = ev.Pos.Sub(ev.Pos.Sub(e.state.Offset).Scale(ratio))
	e.state.Scale = newScale
	e.changed(true)
}

// Reset cancels any active pan and restores the identity view state.
func (e *Engine) Reset() {
	e.CancelPan()
	e.state = DefaultState()
	e.changed(true)
}

// IsDefault reports whether the view state is within epsilon of the identity.
func (e *Engine) IsDefault() bool {
	return math.Abs(e.state.Scale-1) < defaultEpsilon &&
		math.Abs(e.state.Offset.X) < defaultEpsilon &&
		math.Abs(e.state.Offset.Y) < defaultEpsilon
}

// changed drives the two publication paths: the render target sees every
// update, the UI path is coalesced unless force is set (gesture boundaries
// and discrete changes always publish the final value).
func (e *Engine) changed(force bool) {
	if e.onTransform != nil {
		e.onTransform(e.state)
	}
	if e.onPublish == nil {
		return
	}
	now := e.now()
	if !force && now.Sub(e.lastPublish) < publishInterval {
		return
	}
	e.lastPublish = now
	e.onPublish(e.state)
}

func clampScale(s float64) float64 {
	if s < MinScale {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
