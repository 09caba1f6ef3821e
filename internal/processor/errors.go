package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch covers network errors, non-2xx responses and oversized bodies.
	ErrFetch = errors.New("fetch image")
	// ErrDecode means the fetched bytes are not a readable image.
	ErrDecode = errors.New("decode image")
	// ErrSurfaceUnavailable means no drawing surface of the target size could be obtained.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
	// ErrEncode covers zero-area surfaces and encoder failures.
	ErrEncode = errors.New("encode image")
	// ErrSave means the download backend rejected the artifact.
	ErrSave = errors.New("save image")
)

// StageError records the pipeline stage an invocation failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, or StageDone if there is none.
func FailedStage(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}

	return StageDone
}
