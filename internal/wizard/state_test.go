package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"eta-service/internal/models"
)

func TestNewStateStartsAtFirstStep(t *testing.T) {
	s := NewState()

	assert.Equal(t, StepPassport, s.Current())
	assert.False(t, s.PaymentInFlight())
	assert.False(t, s.SubmissionInFlight())
}

func TestAdvanceAndRetreatBounds(t *testing.T) {
	s := NewState()

	s.Retreat()
	assert.Equal(t, StepPassport, s.Current(), "retreat on first step is a no-op")

	for i := 0; i < Count+5; i++ {
		s.Advance()
	}
	assert.Equal(t, StepReview, s.Current(), "advance past last step is a no-op")
}

func TestJumpToOutOfRangeIsNoOp(t *testing.T) {
	s := NewState()
	s.Advance()

	before := s.Current()
	s.JumpTo(Step(-1))
	assert.Equal(t, before, s.Current())
	s.JumpTo(Step(Count))
	assert.Equal(t, before, s.Current())
	s.JumpTo(Step(99))
	assert.Equal(t, before, s.Current())

	s.JumpTo(StepAddress)
	assert.Equal(t, StepAddress, s.Current())
}

func TestMergeStepDataPreservesEarlierSteps(t *testing.T) {
	s := NewState()

	s.MergeStepData(models.PassportDetails{
		PassportCountry: "TR",
		PassportNumber:  "U12345678",
	})
	s.MergeStepData(models.ContactDetails{
		Email:        "applicant@example.com",
		ConfirmEmail: "applicant@example.com",
	})

	d := s.Draft()
	assert.Equal(t, "TR", d.PassportCountry)
	assert.Equal(t, "U12345678", d.PassportNumber)
	assert.Equal(t, "applicant@example.com", d.Email)

	// Re-applying a step overwrites its own fields only.
	s.MergeStepData(models.PassportDetails{
		PassportCountry: "DE",
		PassportNumber:  "C98765432",
	})
	assert.Equal(t, "DE", d.PassportCountry)
	assert.Equal(t, "applicant@example.com", d.Email)
}

func TestMarkCompleteIdempotent(t *testing.T) {
	s := NewState()

	assert.False(t, s.IsComplete(StepPassport))
	s.MarkComplete(StepPassport)
	s.MarkComplete(StepPassport)
	assert.True(t, s.IsComplete(StepPassport))
}

func TestIsStepUnlocked(t *testing.T) {
	s := NewState()

	assert.True(t, s.IsStepUnlocked(StepPassport), "current step is unlocked")
	assert.False(t, s.IsStepUnlocked(StepPersonal), "future step is locked")

	s.MarkComplete(StepPassport)
	s.Advance()
	s.MarkComplete(StepPersonal)
	s.Advance()

	assert.True(t, s.IsStepUnlocked(StepPassport), "completed step stays unlocked")
	assert.True(t, s.IsStepUnlocked(StepPersonal))
	assert.True(t, s.IsStepUnlocked(StepContact), "current step")
	assert.False(t, s.IsStepUnlocked(StepPhoto), "beyond highest visited")
	assert.False(t, s.IsStepUnlocked(Step(-1)))
	assert.False(t, s.IsStepUnlocked(Step(Count)))

	// Edit jump back: everything before the highest visited step remains
	// reachable.
	s.JumpTo(StepPassport)
	assert.True(t, s.IsStepUnlocked(StepPersonal))
}

func TestParseStep(t *testing.T) {
	for i := 0; i < Count; i++ {
		step := Step(i)
		parsed, ok := ParseStep(step.String())
		assert.True(t, ok)
		assert.Equal(t, step, parsed)
	}

	_, ok := ParseStep("bogus")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Step(99).String())
}
