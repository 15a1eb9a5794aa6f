package models

// StepName identifies a wizard step.
type StepName string

// Step names. The first seven double as keys of the per-step agent response cache.
const (
	StepWelcome       StepName = "situation"
	StepThoughts      StepName = "thoughts"
	StepEmotions      StepName = "emotions"
	StepSupport       StepName = "support_system"
	StepStrengths     StepName = "strengths"
	StepGoals         StepName = "goal"
	StepFinalNotes    StepName = "extra_notes"
	StepSummary       StepName = "summary"
	StepFinalResponse StepName = "response"
)

// StepNames maps cursor positions to step names; index 0 is unused.
var StepNames = [LastStep + 1]StepName{
	"", StepWelcome, StepThoughts, StepEmotions, StepSupport,
	StepStrengths, StepGoals, StepFinalNotes, StepSummary, StepFinalResponse,
}

// StepNameAt returns the name of the step at cursor position n.
func StepNameAt(n int) (StepName, bool) {
	if n < FirstStep || n > LastStep {
		return "", false
	}
	return StepNames[n], true
}

// AcceptsAgentSupport reports whether the step offers an on-demand supportive message.
func (n StepName) AcceptsAgentSupport() bool {
	switch n {
	case StepWelcome, StepThoughts, StepEmotions, StepSupport, StepStrengths, StepGoals, StepFinalNotes:
		return true
	default:
		return false
	}
}
