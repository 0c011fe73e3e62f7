package exporter

import "errors"

var (
	// ErrMissingInput indicates the source asset is absent or unreadable.
	ErrMissingInput = errors.New("source asset unavailable")
	// ErrMissingTool indicates an external tool could not be resolved.
	ErrMissingTool = errors.New("external tool unavailable")
	// ErrWorkDirBusy indicates another export holds the work directory lock.
	ErrWorkDirBusy = errors.New("work directory in use by another export")
	// ErrVerify indicates a produced texture does not have the expected shape.
	ErrVerify = errors.New("texture verification failed")
)
