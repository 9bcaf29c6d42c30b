package report

import (
	"fmt"
	"sync"
)

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchonize different error method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors reported so far.
	errorCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays only warnings and errors to the user.
	LogLevelVerbose        // Displays all compilation messages to the user (default).
)

// LogLevelNames maps the CLI and profile spellings of the log levels to their
// enumerated values.
var LogLevelNames = map[string]int{
	"silent":  LogLevelSilent,
	"error":   LogLevelError,
	"warn":    LogLevelWarn,
	"verbose": LogLevelVerbose,
}

// NewReporter creates a standalone reporter.  Most of the compiler uses the
// global reporter, but a build may want its own error count.
func NewReporter(logLevel int) *Reporter {
	return &Reporter{
		m:        &sync.Mutex{},
		logLevel: logLevel,
	}
}

// ReportError reports an environment failure: an error that is not caused by
// the user's source code (that has already been checked) but by the module or
// the filesystem the compiler is working against.
func (r *Reporter) ReportError(message string, args ...interface{}) {
	r.m.Lock()
	defer r.m.Unlock()

	r.errorCount++

	if r.logLevel > LogLevelSilent {
		displayError(fmt.Sprintf(message, args...))
	}
}

// ReportWarning reports a warning.
func (r *Reporter) ReportWarning(message string, args ...interface{}) {
	if r.logLevel > LogLevelError {
		r.m.Lock()
		defer r.m.Unlock()

		displayWarning(fmt.Sprintf(message, args...))
	}
}

// ReportInfo reports an informational message.  These are only displayed when
// the log level is verbose.
func (r *Reporter) ReportInfo(tag, message string, args ...interface{}) {
	if r.logLevel == LogLevelVerbose {
		r.m.Lock()
		defer r.m.Unlock()

		displayInfo(tag, fmt.Sprintf(message, args...))
	}
}

// ReportICE displays an internal compiler error.  Unlike the rest of the
// reporter, this always displays regardless of log level.
func (r *Reporter) ReportICE(ice *InternalError) {
	r.m.Lock()
	defer r.m.Unlock()

	r.errorCount++
	if ice.Pos != nil {
		displayICE(fmt.Sprintf("%s (at %s)", ice.Message, ice.Pos))
	} else {
		displayICE(ice.Message)
	}
}

// ErrorCount returns the number of errors reported so far.
func (r *Reporter) ErrorCount() int {
	r.m.Lock()
	defer r.m.Unlock()

	return r.errorCount
}

// -----------------------------------------------------------------------------

// rep is the global reporter instance.
var rep = NewReporter(LogLevelVerbose)

// InitReporter initializes the global reporter to the given log level.
func InitReporter(logLevel int) {
	rep = NewReporter(logLevel)
}

// Global returns the global reporter.
func Global() *Reporter {
	return rep
}

// ReportError reports an environment failure to the global reporter.
func ReportError(message string, args ...interface{}) {
	rep.ReportError(message, args...)
}

// ReportWarning reports a warning to the global reporter.
func ReportWarning(message string, args ...interface{}) {
	rep.ReportWarning(message, args...)
}

// ReportInfo reports an informational message to the global reporter.
func ReportInfo(tag, message string, args ...interface{}) {
	rep.ReportInfo(tag, message, args...)
}

// AnyErrors returns whether or not any errors were reported globally.
func AnyErrors() bool {
	return rep.ErrorCount() > 0
}
