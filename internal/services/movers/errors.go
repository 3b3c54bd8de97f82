package movers

import (
	"errors"
	"fmt"
)

// ErrFetchFailed is the single error kind surfaced for every movers failure.
var ErrFetchFailed = errors.New("failed to fetch market data")

// ErrInvalidRequest rejects a fetch before the completion service is called.
var ErrInvalidRequest = fmt.Errorf("%w: invalid request", ErrFetchFailed)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageNetwork    Stage = "network"
	StageParse      Stage = "parse"
	StageValidation Stage = "validation"
)

// StageError records where in the pipeline a fetch failed.
// It matches both its cause and ErrFetchFailed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", ErrFetchFailed, e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Err, ErrFetchFailed}
}

func stageErr(stage Stage, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Err: fmt.Errorf(format, args...)}
}
