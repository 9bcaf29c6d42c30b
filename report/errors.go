package report

import (
	"fmt"
	"os"
)

// Sink accepts formatted messages describing environment failures.  Code
// generation reports through a sink and keeps going: it is the caller that
// decides whether to halt the whole compilation.
type Sink interface {
	ReportError(message string, args ...interface{})
}

// -----------------------------------------------------------------------------

// InternalError is an internal compiler error: an error that specifically
// results from a bug or from an earlier phase breaking its contract with a
// later one.  These are never supposed to happen.
type InternalError struct {
	Message string

	// Pos is the position of the innermost statement being processed when
	// the error was raised, if it is known.
	Pos *TextPosition
}

func (ie *InternalError) Error() string {
	if ie.Pos != nil {
		return fmt.Sprintf("internal compiler error at %s: %s", ie.Pos, ie.Message)
	}

	return "internal compiler error: " + ie.Message
}

// AnnotateICE attaches pos to an internal compiler error propagating through
// the calling frame and then resumes the panic.  Errors which already carry a
// position keep it.
// NB: This function must ALWAYS be deferred.
func AnnotateICE(pos *TextPosition) {
	if x := recover(); x != nil {
		if ie, ok := x.(*InternalError); ok && ie.Pos == nil {
			ie.Pos = pos
		}

		panic(x)
	}
}

// ICE raises an internal compiler error.  It panics with an *InternalError
// which is caught by CatchErrors.
func ICE(message string, args ...interface{}) {
	panic(&InternalError{Message: fmt.Sprintf(message, args...)})
}

// Assert raises an internal compiler error if cond is false.
func Assert(cond bool, message string, args ...interface{}) {
	if !cond {
		ICE(message, args...)
	}
}

// ReportFatal reports a fatal error and exits.  These are errors that should
// cause all compilation to stop immediately but are expected: invalid command
// line usage, a missing build profile, etc.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		displayFatal(fmt.Sprintf(message, args...))
		rep.m.Unlock()
	}

	os.Exit(1)
}

// -----------------------------------------------------------------------------

// CatchErrors catches internal compiler errors and standard errors thrown by a
// `panic` during a stage of compilation and reports them to the global
// reporter.  In effect, it determines where errors unrecoverable within a
// subsection of the compiler stop bubbling.  If ok is non-nil, it is set to
// false when an error is caught.
// NB: This function must ALWAYS be deferred.
func CatchErrors(reprPath string, ok *bool) {
	if x := recover(); x != nil {
		if ok != nil {
			*ok = false
		}

		switch v := x.(type) {
		case *InternalError:
			rep.ReportICE(v)
		case error:
			rep.ReportError("%s: %s", reprPath, v)
		default:
			rep.ReportICE(&InternalError{Message: fmt.Sprint(v)})
		}
	}
}
