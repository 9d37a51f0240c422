package submission

// Phase is the orchestrator's position in the payment-and-submit flow. The
// happy path runs Reviewing → AwaitingChargeIntent → AwaitingChargeConfirmation
// → Submitting → Complete; Errored is reachable from any phase before
// Complete and returns control to Reviewing without losing the draft.
type Phase int

const (
	PhaseReviewing Phase = iota
	PhaseAwaitingChargeIntent
	PhaseAwaitingChargeConfirmation
	PhaseSubmitting
	PhaseComplete
	PhaseErrored
)

var phaseNames = [...]string{
	PhaseReviewing:                  "reviewing",
	PhaseAwaitingChargeIntent:       "awaiting_charge_intent",
	PhaseAwaitingChargeConfirmation: "awaiting_charge_confirmation",
	PhaseSubmitting:                 "submitting",
	PhaseComplete:                   "complete",
	PhaseErrored:                    "errored",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}
