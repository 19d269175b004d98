package recordstore

import "errors"

var (
	// ErrCorruptData wraps decode failures of the persisted collection.
	ErrCorruptData = errors.New("recordstore: persisted data is corrupt")
	// ErrNotLoaded is returned by mutations attempted before Load.
	ErrNotLoaded = errors.New("recordstore: store not loaded")
)
