// Package wizard models the multi-step application form as a small state
// machine: a fixed ordered sequence of steps, per-step completion tracking,
// and navigation rules that keep users from jumping past unvalidated steps.
package wizard

// Step identifies one page of the application form. Values are ordinal; the
// declared order is the order applicants move through them.
type Step int

const (
	StepPassport Step = iota
	StepPersonal
	StepContact
	StepPhoto
	StepBackground
	StepAddress
	StepEmergency
	StepReview

	stepCount
)

// Count is the number of wizard steps.
const Count = int(stepCount)

var stepNames = [...]string{
	StepPassport:   "passport",
	StepPersonal:   "personal",
	StepContact:    "contact",
	StepPhoto:      "photo",
	StepBackground: "background",
	StepAddress:    "address",
	StepEmergency:  "emergency",
	StepReview:     "review",
}

func (s Step) String() string {
	if s < 0 || s >= stepCount {
		return "unknown"
	}
	return stepNames[s]
}

// Valid reports whether s is one of the declared steps.
func (s Step) Valid() bool {
	return s >= 0 && s < stepCount
}

// First and Last bound the sequence.
func First() Step { return StepPassport }
func Last() Step  { return StepReview }

// ParseStep resolves a step name as used on the wire.
func ParseStep(name string) (Step, bool) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), true
		}
	}
	return 0, false
}
