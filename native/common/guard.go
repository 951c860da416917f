package common

import "errors"

// ErrModulePaused is returned when a mutating operation hits a paused module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a named module is currently paused. Implementations
// are supplied by the embedding application; a nil view never pauses.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the operation when the module is paused.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
