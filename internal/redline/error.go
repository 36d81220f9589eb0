package redline

// RuntimeError is returned when no REDline binary can be located
type RuntimeError struct {
	msg string
}

func NewRuntimeError(msg string) *RuntimeError {
	return &RuntimeError{msg}
}

func (e *RuntimeError) Error() string {
	return e.msg
}

// QueryError is returned when a REDline invocation fails to run or exits
// with an error. Stderr holds whatever the tool printed before failing.
type QueryError struct {
	Mode   Mode
	Stderr string
	Err    error
}

func (e *QueryError) Error() string {
	if e.Stderr != "" {
		return "redline: --printMeta " + e.Mode.String() + ": " + e.Err.Error() + ": " + e.Stderr
	}
	return "redline: --printMeta " + e.Mode.String() + ": " + e.Err.Error()
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
