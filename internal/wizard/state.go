package wizard

import "eta-service/internal/models"

// State is the runtime form state for one applicant session. It is owned by
// whatever surface renders the form and is never persisted; the draft inside
// it only reaches storage after a successful payment.
//
// All operations are total: out-of-range navigation is a silent no-op rather
// than an error. Validation failures belong to the validation package, not
// to state transitions.
type State struct {
	current        Step
	highestVisited Step
	completed      map[Step]bool
	draft          models.ApplicationDraft

	paymentInFlight    bool
	submissionInFlight bool
}

// NewState starts a session at the first step with an empty draft.
func NewState() *State {
	return &State{
		current:        First(),
		highestVisited: First(),
		completed:      make(map[Step]bool),
	}
}

// Current returns the active step.
func (s *State) Current() Step { return s.current }

// Draft returns the accumulated draft. Callers get a pointer so the
// orchestrator can hand the same record through payment and persistence.
func (s *State) Draft() *models.ApplicationDraft { return &s.draft }

// Advance moves to the next step; no-op on the last step.
func (s *State) Advance() {
	if s.current < Last() {
		s.setCurrent(s.current + 1)
	}
}

// Retreat moves to the previous step; no-op on the first step.
func (s *State) Retreat() {
	if s.current > First() {
		s.setCurrent(s.current - 1)
	}
}

// JumpTo sets the active step. Out-of-range indices are ignored.
func (s *State) JumpTo(step Step) {
	if step.Valid() {
		s.setCurrent(step)
	}
}

func (s *State) setCurrent(step Step) {
	s.current = step
	if step > s.highestVisited {
		s.highestVisited = step
	}
}

// MergeStepData applies one step's validated slice to the draft. Slices are
// disjoint, so later steps never clear earlier steps' fields; re-applying a
// step overwrites its own fields.
func (s *State) MergeStepData(data models.StepData) {
	data.Apply(&s.draft)
}

// MarkComplete records that a step's slice passed validation. Idempotent.
func (s *State) MarkComplete(step Step) {
	if step.Valid() {
		s.completed[step] = true
	}
}

// IsComplete reports whether a step has been marked complete.
func (s *State) IsComplete(step Step) bool {
	return s.completed[step]
}

// IsStepUnlocked reports whether the step indicator should allow a jump to
// the given step: the current step, any completed step, and anything before
// the highest step visited so far are reachable.
func (s *State) IsStepUnlocked(step Step) bool {
	if !step.Valid() {
		return false
	}
	return step == s.current || s.completed[step] || step < s.highestVisited
}

// Payment/submission in-flight flags guard against double-clicks on the
// review step.

func (s *State) PaymentInFlight() bool        { return s.paymentInFlight }
func (s *State) SetPaymentInFlight(v bool)    { s.paymentInFlight = v }
func (s *State) SubmissionInFlight() bool     { return s.submissionInFlight }
func (s *State) SetSubmissionInFlight(v bool) { s.submissionInFlight = v }
