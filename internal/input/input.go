// Package input defines the pointer, wheel, and tool vocabulary shared by the
// viewport and masking engines. The host surface translates whatever its UI
// toolkit delivers into these events; the engines never see toolkit types.
package input

import "floorplan-studio/pkg/geometry"

// Tool identifies the interaction tool armed on the workspace.
type Tool int

const (
	ToolNone Tool = iota
	ToolPan
	ToolErase
	ToolRestore
)

func (t Tool) String() string {
	switch t {
	case ToolPan:
		return "Pan"
	case ToolErase:
		return "Erase"
	case ToolRestore:
		return "Restore"
	default:
		return "None"
	}
}

// IsMask reports whether the tool paints the mask (erase or restore).
func (t Tool) IsMask() bool {
	return t == ToolErase || t == ToolRestore
}

// Kind discriminates pointer event types.
type Kind int

const (
	KindDown Kind = iota
	KindMove
	KindUp
	KindCancel
)

func (k Kind) String() string {
	switch k {
	case KindDown:
		return "down"
	case KindMove:
		return "move"
	case KindUp:
		return "up"
	default:
		return "cancel"
	}
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonOther
)

// PointerEvent is a single pointer transition delivered by the host surface.
// Pos is in preview/display pixels, relative to the surface origin.
type PointerEvent struct {
	Kind   Kind
	ID     int
	Button Button
	Pos    geometry.Point2D
}

// WheelEvent is a wheel tick delivered by the host surface. Pos is the cursor
// position in preview/display pixels at the time of the tick.
type WheelEvent struct {
	DeltaY float64
	Pos    geometry.Point2D
}
