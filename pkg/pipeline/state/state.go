package state

import "fmt"

// Status is the lifecycle position of a research session.
// The graph is strictly linear: no branches, no cycles, no backward moves.
type Status string

const (
	Created          Status = "CREATED"
	Clarifying       Status = "CLARIFYING"
	AwaitingConsent  Status = "AWAITING_CONSENT"
	ReadyForResearch Status = "READY_FOR_RESEARCH"
	OutlineGenerated Status = "OUTLINE_GENERATED"
	ResearchRunning  Status = "RESEARCH_RUNNING"
	WritingSections  Status = "WRITING_SECTIONS"
	ReadyForExport   Status = "READY_FOR_EXPORT"
)

// transitions maps each status to its single allowed successor.
// Anything not in the table is rejected.
var transitions = map[Status]Status{
	Created:          Clarifying,
	Clarifying:       AwaitingConsent,
	AwaitingConsent:  ReadyForResearch,
	ReadyForResearch: OutlineGenerated,
	OutlineGenerated: ResearchRunning,
	ResearchRunning:  WritingSections,
	WritingSections:  ReadyForExport,
}

// InvalidTransitionError is returned when a guarded transition finds the
// session in a state other than the one the operation requires.
// It is never retried; callers treat it as a no-op.
type InvalidTransitionError struct {
	Current  Status
	Expected Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition: session is %s, expected %s", e.Current, e.Expected)
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	if s == ReadyForExport {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// Next returns the only status reachable from s. ok is false when s is
// terminal or unknown.
func Next(s Status) (Status, bool) {
	next, ok := transitions[s]
	return next, ok
}

// Guard checks that current equals expected and that expected actually has a
// successor in the table. On success it returns the successor status.
// This is the idempotency guard used by every transition operation: a
// duplicate event finds the session already advanced and gets a typed error
// with no mutation performed.
func Guard(current, expected Status) (Status, error) {
	if current != expected {
		return "", &InvalidTransitionError{Current: current, Expected: expected}
	}
	next, ok := transitions[expected]
	if !ok {
		return "", &InvalidTransitionError{Current: current, Expected: expected}
	}
	return next, nil
}
