package dialog

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fun-bot/internal/domain"
)

// ErrDialogActive is returned by Begin when the conversation already runs a dialog.
var ErrDialogActive = errors.New("dialog: a dialog is already active")

// Status reports where the conversation stands after a Begin or Continue.
type Status int

const (
	// StatusEmpty means no dialog was active, so nothing ran.
	StatusEmpty Status = iota
	// StatusWaiting means a dialog is active and awaits the next turn.
	StatusWaiting
	// StatusComplete means the dialog finished and was popped this turn.
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusComplete:
		return "complete"
	default:
		return "empty"
	}
}

// Result is the output of driving a dialog for one turn.
type Result struct {
	Replies []domain.Reply
	Status  Status
}

// Engine drives dialog instances one step per turn. It holds no per-conversation
// state; everything lives in the domain.DialogState passed in.
type Engine struct {
	set    *Set
	logger *slog.Logger
}

// NewEngine freezes set and returns an engine over it.
func NewEngine(set *Set, logger *slog.Logger) (*Engine, error) {
	if set == nil {
		return nil, errors.New("dialog: set must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	set.freeze()
	return &Engine{set: set, logger: logger}, nil
}

// Begin pushes a new instance of the named dialog and runs its first step.
func (e *Engine) Begin(ctx context.Context, st *domain.DialogState, name string, profile *domain.UserProfile) (Result, error) {
	if st.Active() != nil {
		return Result{}, ErrDialogActive
	}
	def, ok := e.set.Get(name)
	if !ok {
		return Result{}, ErrUnknownDialog
	}
	st.Stack = append(st.Stack, domain.DialogInstance{Dialog: def.Name, Cursor: 0})
	e.logger.DebugContext(ctx, "dialog begin", "dialog", def.Name)
	return e.runStep(ctx, st, def, profile, ""), nil
}

// Continue resumes the active instance with the user's reply. It is a no-op
// returning StatusEmpty when the conversation is idle.
func (e *Engine) Continue(ctx context.Context, st *domain.DialogState, reply string, profile *domain.UserProfile) (Result, error) {
	inst := st.Active()
	if inst == nil {
		return Result{Status: StatusEmpty}, nil
	}
	def, ok := e.set.Get(inst.Dialog)
	if !ok || inst.Cursor < 0 || inst.Cursor >= len(def.Steps) {
		// Stale state from an older deployment; start over.
		e.logger.WarnContext(ctx, "dropping unrunnable dialog instance", "dialog", inst.Dialog, "cursor", inst.Cursor)
		st.Stack = nil
		return Result{Status: StatusEmpty}, nil
	}

	result := strings.TrimSpace(reply)
	if inst.Pending != nil {
		var matched bool
		result, matched = recognize(inst.Pending, reply)
		if !matched {
			e.logger.DebugContext(ctx, "reply did not match any choice", "dialog", def.Name, "step", def.Steps[inst.Cursor].Name)
		}
		inst.Pending = nil
		inst.Cursor++
		if inst.Cursor >= len(def.Steps) {
			pop(st)
			return Result{Status: StatusComplete}, nil
		}
	}
	return e.runStep(ctx, st, def, profile, result), nil
}

func (e *Engine) runStep(ctx context.Context, st *domain.DialogState, def Definition, profile *domain.UserProfile, result string) Result {
	inst := st.Active()
	inst.Result = result
	if inst.Values == nil {
		inst.Values = make(map[string]string)
	}
	step := def.Steps[inst.Cursor]
	out := step.Run(&StepContext{Result: result, Values: inst.Values, Profile: profile})
	if len(inst.Values) == 0 {
		inst.Values = nil
	}
	e.logger.DebugContext(ctx, "dialog step", "dialog", def.Name, "step", step.Name, "cursor", inst.Cursor)

	var res Result
	switch out.kind {
	case outcomeSuspend:
		inst.Pending = out.prompt.pending()
		res = Result{Replies: []domain.Reply{out.prompt.reply()}, Status: StatusWaiting}
	case outcomeAdvance:
		res = Result{Replies: message(out.text), Status: StatusWaiting}
		inst.Cursor++
		if inst.Cursor >= len(def.Steps) {
			pop(st)
			res.Status = StatusComplete
		}
	case outcomeComplete:
		pop(st)
		res = Result{Replies: message(out.text), Status: StatusComplete}
	}
	return res
}

func message(text string) []domain.Reply {
	if text == "" {
		return nil
	}
	return []domain.Reply{{Kind: domain.ReplyMessage, Text: text}}
}

// pop removes the finished instance; completed dialogs are never persisted.
func pop(st *domain.DialogState) {
	st.Stack = st.Stack[:len(st.Stack)-1]
	if len(st.Stack) == 0 {
		st.Stack = nil
	}
}
