// Package app provides workspace session state and events.
package app

import (
	"sync"

	"floorplan-studio/internal/input"
	"floorplan-studio/internal/mask"
)

// State holds the session: the ordered image list, the selected image, and
// the armed tool. It is the host-side source of the engines' reactive inputs;
// UI panels subscribe to its events rather than polling the engines.
type State struct {
	mu sync.RWMutex

	images   []mask.ImageRef
	selected string
	tool     input.Tool
	modified bool

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventImagesChanged EventType = iota
	EventSelectionChanged
	EventToolChanged
	EventMaskChanged
	EventViewportChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new session state.
func NewState() *State {
	return &State{
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Images returns a copy of the current image list.
func (s *State) Images() []mask.ImageRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mask.ImageRef, len(s.images))
	copy(out, s.images)
	return out
}

// SetImages replaces the image list. Clears the selection if the selected
// image is no longer present.
func (s *State) SetImages(images []mask.ImageRef) {
	s.mu.Lock()
	s.images = append([]mask.ImageRef(nil), images...)
	if !s.containsLocked(s.selected) {
		s.selected = ""
	}
	s.mu.Unlock()
	s.Emit(EventImagesChanged, s.Images())
}

// AddImage appends an image to the list.
func (s *State) AddImage(ref mask.ImageRef) {
	s.mu.Lock()
	s.images = append(s.images, ref)
	s.mu.Unlock()
	s.Emit(EventImagesChanged, s.Images())
}

// RemoveImage removes an image by id.
func (s *State) RemoveImage(id string) {
	s.mu.Lock()
	for i, ref := range s.images {
		if ref.ID == id {
			s.images = append(s.images[:i], s.images[i+1:]...)
			break
		}
	}
	if s.selected == id {
		s.selected = ""
	}
	s.mu.Unlock()
	s.Emit(EventImagesChanged, s.Images())
}

// Selected returns the selected image id, or "".
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetSelected changes the selected image id.
func (s *State) SetSelected(id string) {
	s.mu.Lock()
	if s.selected == id || (id != "" && !s.containsLocked(id)) {
		s.mu.Unlock()
		return
	}
	s.selected = id
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, id)
}

// Tool returns the armed tool.
func (s *State) Tool() input.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tool
}

// SetTool arms a tool.
func (s *State) SetTool(tool input.Tool) {
	s.mu.Lock()
	if s.tool == tool {
		s.mu.Unlock()
		return
	}
	s.tool = tool
	s.mu.Unlock()
	s.Emit(EventToolChanged, tool)
}

// SetModified marks the session as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Modified reports whether the session has unsaved changes.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

func (s *State) containsLocked(id string) bool {
	if id == "" {
		return true
	}
	for _, ref := range s.images {
		if ref.ID == id {
			return true
		}
	}
	return false
}
