package dialog

import "fun-bot/internal/domain"

type outcomeKind int

const (
	outcomeSuspend outcomeKind = iota
	outcomeAdvance
	outcomeComplete
)

// StepOutcome is what a step asks the engine to do next.
type StepOutcome struct {
	kind   outcomeKind
	prompt Prompt
	text   string
}

// Suspend emits the prompt and waits for the user's reply on the next turn.
func Suspend(p Prompt) StepOutcome {
	return StepOutcome{kind: outcomeSuspend, prompt: p}
}

// Advance emits text (if any) and moves to the next step without prompting.
// The next step runs on the following turn with the user's text as its result.
func Advance(text string) StepOutcome {
	return StepOutcome{kind: outcomeAdvance, text: text}
}

// Complete emits text (if any) and ends the dialog in the same turn.
func Complete(text string) StepOutcome {
	return StepOutcome{kind: outcomeComplete, text: text}
}

// StepContext carries the per-run data a step may read or record.
type StepContext struct {
	// Result is the previous step's captured reply; empty for the first step.
	Result string
	// Values are scratch values persisted with the dialog instance.
	Values map[string]string
	// Profile is the user's profile for this turn. Steps may record answers on it.
	Profile *domain.UserProfile
}

// Step is one waterfall step.
type Step func(sc *StepContext) StepOutcome

// NamedStep pairs a step with a name used in logs.
type NamedStep struct {
	Name string
	Run  Step
}

// Definition is a named, ordered waterfall.
type Definition struct {
	Name  string
	Steps []NamedStep
}
