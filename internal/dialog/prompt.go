package dialog

import (
	"slices"
	"strings"

	"fun-bot/internal/domain"
)

// Prompt is an outbound request for a specific shape of user reply.
type Prompt struct {
	Kind    domain.ReplyKind
	Text    string
	Choices []string
}

// ChoicePrompt asks the user to pick one of choices.
func ChoicePrompt(text string, choices ...string) Prompt {
	return Prompt{Kind: domain.ReplyChoicePrompt, Text: text, Choices: choices}
}

// TextPrompt asks the user for free text.
func TextPrompt(text string) Prompt {
	return Prompt{Kind: domain.ReplyTextPrompt, Text: text}
}

func (p Prompt) reply() domain.Reply {
	return domain.Reply{
		Kind:    p.Kind,
		Text:    p.Text,
		Choices: slices.Clone(p.Choices),
	}
}

func (p Prompt) pending() *domain.PendingPrompt {
	return &domain.PendingPrompt{Kind: p.Kind, Choices: slices.Clone(p.Choices)}
}

// Normalize trims and lower-cases a reply for choice comparison.
func Normalize(reply string) string {
	return strings.ToLower(strings.TrimSpace(reply))
}

// recognize turns the raw user reply into the step result. Choice prompts
// never reject: an unmatched reply is still returned in normalized form and
// matching is left to the step.
func recognize(p *domain.PendingPrompt, reply string) (result string, matched bool) {
	switch p.Kind {
	case domain.ReplyChoicePrompt:
		n := Normalize(reply)
		for _, c := range p.Choices {
			if Normalize(c) == n {
				return n, true
			}
		}
		return n, false
	default:
		return strings.TrimSpace(reply), true
	}
}
