package types

import "fmt"

// Phase tracks where a run is in its lifecycle. Phases advance strictly
// in order; there is no retry loop.
type Phase string

const (
	PhaseInit   Phase = "init"
	PhaseProbe  Phase = "probe"
	PhaseDiff   Phase = "diff"
	PhaseApply  Phase = "apply"
	PhaseReport Phase = "report"
	PhaseDone   Phase = "done"
	PhaseFailed Phase = "failed"
)

// Warning records a recoverable failure or skipped action. Warnings do
// not affect the process exit status.
type Warning struct {
	// Code is the error code category (e.g. PACKAGE_INSTALL, DEPLOYMENT).
	Code string
	// Item is the package name or file path the warning applies to.
	Item string
	// Message is the human-readable description.
	Message string
	// Err is the underlying error, if any.
	Err error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s %s: %s (%v)", w.Code, w.Item, w.Message, w.Err)
	}
	return fmt.Sprintf("%s %s: %s", w.Code, w.Item, w.Message)
}

// Report is the explicit run context threaded through every operation.
// It replaces what the shell scripts kept in process-wide variables: the
// accumulating warnings list and the per-step counters.
type Report struct {
	Phase    Phase
	Warnings []Warning

	// Counters of applied and skipped actions.
	Installed int
	Present   int // packages already installed at probe time
	Linked    int
	Copied    int
	Appended  int
	Synced    int
	Deleted   int
	Skipped   int

	// Fatal is set only when the run aborts (bootstrap failure).
	Fatal error

	// Notify, when set, is invoked for each warning as it is recorded so
	// the CLI can print it immediately with a severity prefix.
	Notify func(Warning) `json:"-"`
}

// NewReport creates an empty report in the init phase.
func NewReport() *Report {
	return &Report{Phase: PhaseInit}
}

// Advance moves the run to the given phase.
func (r *Report) Advance(p Phase) {
	r.Phase = p
}

// Warn records a recoverable failure and notifies the listener, if any.
func (r *Report) Warn(code, item, message string, err error) {
	w := Warning{Code: code, Item: item, Message: message, Err: err}
	r.Warnings = append(r.Warnings, w)
	if r.Notify != nil {
		r.Notify(w)
	}
}

// Fail marks the run as fatally failed.
func (r *Report) Fail(err error) {
	r.Fatal = err
	r.Phase = PhaseFailed
}

// HasWarnings reports whether any recoverable failures were recorded.
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Changed reports whether the run performed any side effect. A second
// run over unchanged state must report Changed() == false.
func (r *Report) Changed() bool {
	return r.Installed+r.Linked+r.Copied+r.Appended+r.Synced+r.Deleted > 0
}
