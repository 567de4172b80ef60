package ranger

import "errors"

var (
	errDuplicateID    = errors.New("missing or duplicate sensor id")
	errPinInUse       = errors.New("pin already in use")
	errStorageOverlap = errors.New("storage ring overlaps another sensor")
	errNoSuchPin      = errors.New("pin not available on this board")
)
