package usecase

import (
	"fun-bot/internal/dialog"
)

const (
	// DefaultDialog is begun whenever a message arrives in an idle conversation.
	DefaultDialog = "primary"

	stepHavingFun = "havingFun"
	stepWhy       = "why"
	stepThanks    = "thanks"

	greetingText  = "I am the fun bot."
	havingFunText = "Are you having fun?"
	whyText       = "Why?"
	whyNotText    = "Why not?"
	thanksText    = "Thanks for talking to me!"

	answerYes = "yes"
	answerNo  = "no"
)

// FunDialog is the three-step "are you having fun" waterfall.
func FunDialog() dialog.Definition {
	return dialog.Definition{
		Name: DefaultDialog,
		Steps: []dialog.NamedStep{
			{Name: stepHavingFun, Run: askHavingFun},
			{Name: stepWhy, Run: askWhy},
			{Name: stepThanks, Run: sayThanks},
		},
	}
}

// NewDialogSet returns a registry holding every dialog the bot can run.
func NewDialogSet() (*dialog.Set, error) {
	set := dialog.NewSet()
	if err := set.Add(FunDialog()); err != nil {
		return nil, err
	}
	return set, nil
}

func askHavingFun(_ *dialog.StepContext) dialog.StepOutcome {
	return dialog.Suspend(dialog.ChoicePrompt(havingFunText, answerYes, answerNo))
}

// Anything other than "yes" takes the "no" branch; there is no reprompt.
func askWhy(sc *dialog.StepContext) dialog.StepOutcome {
	answer := answerNo
	if dialog.Normalize(sc.Result) == answerYes {
		answer = answerYes
	}
	if sc.Profile != nil {
		sc.Profile.HavingFun = answer
	}
	if answer == answerYes {
		return dialog.Suspend(dialog.TextPrompt(whyText))
	}
	return dialog.Suspend(dialog.TextPrompt(whyNotText))
}

func sayThanks(sc *dialog.StepContext) dialog.StepOutcome {
	if sc.Profile != nil {
		sc.Profile.Reason = sc.Result
		sc.Profile.CompletedRuns++
	}
	return dialog.Complete(thanksText)
}
