package domain

import "fmt"

// StageError is the tagged failure outcome of a stage invocation. Stages
// never let errors cross their boundary untagged; every terminal failure is
// wrapped with the kind the orchestrator dispatches on.
type StageError struct {
	Kind FailureKind
	Err  error
}

func NewStageError(kind FailureKind, err error) *StageError {
	return &StageError{Kind: kind, Err: err}
}

func StageErrorf(kind FailureKind, format string, args ...any) *StageError {
	return &StageError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from a stage error chain. Errors that did
// not originate from a stage report an empty kind.
func KindOf(err error) FailureKind {
	for err != nil {
		if stageErr, ok := err.(*StageError); ok {
			return stageErr.Kind
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = unwrapper.Unwrap()
	}
	return ""
}
