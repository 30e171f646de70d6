package automation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAutomationTimeout is reported when a required element never appeared within its step bound.
	ErrAutomationTimeout = errors.New("automation timeout")

	// ErrAutomation is reported for any other browser-side failure.
	ErrAutomation = errors.New("automation failed")
)

// StepError records the browser step that failed.
type StepError struct {
	Phase    string
	Step     string
	Selector string
	Err      error
}

func newStepError(phase, step, selector string, err error) *StepError {
	return &StepError{Phase: phase, Step: step, Selector: selector, Err: err}
}

func (e *StepError) Error() string {
	kind := "failed"
	if e.Timeout() {
		kind = "timed out"
	}
	if e.Selector != "" {
		return fmt.Sprintf("%s: %s %q %s: %v", e.Phase, e.Step, e.Selector, kind, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Phase, e.Step, kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is maps the step onto ErrAutomationTimeout or ErrAutomation.
func (e *StepError) Is(target error) bool {
	switch target {
	case ErrAutomationTimeout:
		return e.Timeout()
	case ErrAutomation:
		return !e.Timeout()
	}
	return false
}

// Timeout reports whether the step ran out of time.
func (e *StepError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
