package interact

import "sync/atomic"

// KeyActions are the callbacks reachable from the keyboard.
type KeyActions struct {
	ClearSelection func()
	ZoomIn         func()
	ZoomOut        func()
	ResetZoom      func()
}

// KeyHandler is the single keyboard subscription of a mounted wheel. The
// subscription is made once; Bind swaps the action set it dispatches to,
// so callers can refresh closures on every update without re-subscribing.
type KeyHandler struct {
	actions atomic.Pointer[KeyActions]
	closed  atomic.Bool
}

// NewKeyHandler creates a handler dispatching to a.
func NewKeyHandler(a KeyActions) *KeyHandler {
	h := &KeyHandler{}
	h.Bind(a)
	return h
}

// Bind replaces the current action set.
func (h *KeyHandler) Bind(a KeyActions) {
	h.actions.Store(&a)
}

// Close detaches the handler; later keys are ignored.
func (h *KeyHandler) Close() {
	h.closed.Store(true)
	h.actions.Store(nil)
}

// Handle dispatches a key name and reports whether it was consumed:
// Escape clears the selection, "+" / "=" zoom in, "-" zooms out and "0"
// resets the view.
func (h *KeyHandler) Handle(key string) bool {
	if h == nil || h.closed.Load() {
		return false
	}
	a := h.actions.Load()
	if a == nil {
		return false
	}

	var fn func()
	switch key {
	case "esc", "escape", "Escape":
		fn = a.ClearSelection
	case "+", "=":
		fn = a.ZoomIn
	case "-":
		fn = a.ZoomOut
	case "0":
		fn = a.ResetZoom
	default:
		return false
	}

	if fn != nil {
		fn()
	}
	return true
}
