package gem2deb

import (
	"errors"
	"fmt"
)

// ErrUnrecognizedExtensionType is returned when a build script matches none
// of the known build strategies. It is fatal for the whole batch.
var ErrUnrecognizedExtensionType = errors.New("unrecognized extension type")

// BuildFailure reports a native build or install step that failed.
//
// Err is the error returned by the failing step, unchanged; errors.Is and
// errors.As see through BuildFailure to it. Output holds the build log
// accumulated up to the failure.
type BuildFailure struct {
	Extension string
	Builder   string
	Output    []string
	Err       error
}

func (e *BuildFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s build failed for %s", e.Builder, e.Extension)
	}
	return fmt.Sprintf("%s build failed for %s: %v", e.Builder, e.Extension, e.Err)
}

func (e *BuildFailure) Unwrap() error {
	return e.Err
}

func unrecognizedExtension(path string) error {
	return fmt.Errorf("cannot build extension '%s': %w", path, ErrUnrecognizedExtensionType)
}
