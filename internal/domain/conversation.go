package domain

import "time"

// Popped is the cursor of an instance that has already finished. Such an
// instance is never saved; if one is loaded the engine drops it.
const Popped = -1

// DialogState is the persisted conversation-scoped state. Stack holds at most
// one instance for the scripted flow.
type DialogState struct {
	Stack []DialogInstance `json:"stack,omitempty"`
}

// Active returns the running instance, or nil when the conversation is idle.
func (s *DialogState) Active() *DialogInstance {
	if s == nil || len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

// DialogInstance is a runtime frame of a registered dialog.
type DialogInstance struct {
	Dialog  string            `json:"dialog"`
	Cursor  int               `json:"cursor"`
	Result  string            `json:"result,omitempty"`
	Pending *PendingPrompt    `json:"pending,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// PendingPrompt describes the reply a suspended step is waiting for.
type PendingPrompt struct {
	Kind    ReplyKind `json:"kind"`
	Choices []string  `json:"choices,omitempty"`
}

// UserProfile is the persisted user-scoped state.
type UserProfile struct {
	UserID        string    `json:"userId,omitempty"`
	HavingFun     string    `json:"havingFun,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	CompletedRuns int       `json:"completedRuns,omitempty"`
	LastSeen      time.Time `json:"lastSeen,omitempty"`
}
