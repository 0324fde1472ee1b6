package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fun-bot/internal/domain"
)

func askTwice() Definition {
	return Definition{
		Name: "ask",
		Steps: []NamedStep{
			{Name: "color", Run: func(_ *StepContext) StepOutcome {
				return Suspend(ChoicePrompt("Pick a color", "Red", "Blue"))
			}},
			{Name: "echo", Run: func(sc *StepContext) StepOutcome {
				sc.Values["color"] = sc.Result
				return Advance("You picked " + sc.Result)
			}},
			{Name: "done", Run: func(sc *StepContext) StepOutcome {
				if sc.Profile != nil {
					sc.Profile.Reason = sc.Values["color"] + "/" + sc.Result
				}
				return Complete("bye")
			}},
		},
	}
}

func newTestEngine(t *testing.T, defs ...Definition) *Engine {
	t.Helper()
	set := NewSet()
	for _, d := range defs {
		require.NoError(t, set.Add(d))
	}
	e, err := NewEngine(set, nil)
	require.NoError(t, err)
	return e
}

func TestNewEngine_ValidatesSet(t *testing.T) {
	_, err := NewEngine(nil, nil)
	require.Error(t, err)
}

func TestEngine_BeginRunsFirstStepAndSuspends(t *testing.T) {
	e := newTestEngine(t, askTwice())
	var st domain.DialogState

	res, err := e.Begin(context.Background(), &st, "ask", nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, []domain.Reply{{Kind: domain.ReplyChoicePrompt, Text: "Pick a color", Choices: []string{"Red", "Blue"}}}, res.Replies)

	inst := st.Active()
	require.NotNil(t, inst)
	require.Equal(t, 0, inst.Cursor)
	require.Equal(t, &domain.PendingPrompt{Kind: domain.ReplyChoicePrompt, Choices: []string{"Red", "Blue"}}, inst.Pending)
}

func TestEngine_BeginWhileActiveFails(t *testing.T) {
	e := newTestEngine(t, askTwice())
	var st domain.DialogState
	_, err := e.Begin(context.Background(), &st, "ask", nil)
	require.NoError(t, err)

	_, err = e.Begin(context.Background(), &st, "ask", nil)
	require.ErrorIs(t, err, ErrDialogActive)
	require.Len(t, st.Stack, 1)
}

func TestEngine_BeginUnknownDialog(t *testing.T) {
	e := newTestEngine(t, askTwice())
	var st domain.DialogState

	_, err := e.Begin(context.Background(), &st, "missing", nil)
	require.ErrorIs(t, err, ErrUnknownDialog)
	require.Nil(t, st.Active())
}

func TestEngine_ContinueWhenIdleIsNoop(t *testing.T) {
	e := newTestEngine(t, askTwice())
	var st domain.DialogState

	res, err := e.Continue(context.Background(), &st, "hello", nil)
	require.NoError(t, err)
	require.Equal(t, StatusEmpty, res.Status)
	require.Empty(t, res.Replies)
	require.Nil(t, st.Active())
}

func TestEngine_WalksAdvanceAndComplete(t *testing.T) {
	e := newTestEngine(t, askTwice())
	ctx := context.Background()
	var st domain.DialogState
	profile := &domain.UserProfile{}

	_, err := e.Begin(ctx, &st, "ask", profile)
	require.NoError(t, err)

	res, err := e.Continue(ctx, &st, "  BLUE ", profile)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, res.Status)
	require.Equal(t, "You picked blue", res.Replies[0].Text)
	require.Equal(t, domain.ReplyMessage, res.Replies[0].Kind)
	require.Equal(t, 2, st.Active().Cursor)
	require.Nil(t, st.Active().Pending)
	require.Equal(t, "blue", st.Active().Values["color"])

	res, err = e.Continue(ctx, &st, " ok ", profile)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, res.Status)
	require.Equal(t, []domain.Reply{{Kind: domain.ReplyMessage, Text: "bye"}}, res.Replies)
	require.Nil(t, st.Active())
	require.Nil(t, st.Stack)
	require.Equal(t, "blue/ok", profile.Reason)
}

func TestEngine_UnmatchedChoiceIsStillNormalized(t *testing.T) {
	e := newTestEngine(t, askTwice())
	ctx := context.Background()
	var st domain.DialogState
	_, err := e.Begin(ctx, &st, "ask", nil)
	require.NoError(t, err)

	res, err := e.Continue(ctx, &st, " Maybe ", nil)
	require.NoError(t, err)
	require.Equal(t, "You picked maybe", res.Replies[0].Text)
}

func TestEngine_SuspendOnLastStepCompletesOnReply(t *testing.T) {
	e := newTestEngine(t, Definition{
		Name: "one",
		Steps: []NamedStep{{Name: "q", Run: func(_ *StepContext) StepOutcome {
			return Suspend(TextPrompt("Name?"))
		}}},
	})
	ctx := context.Background()
	var st domain.DialogState
	_, err := e.Begin(ctx, &st, "one", nil)
	require.NoError(t, err)

	res, err := e.Continue(ctx, &st, "Ada", nil)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, res.Status)
	require.Empty(t, res.Replies)
	require.Nil(t, st.Active())
}

func TestEngine_DropsStaleInstances(t *testing.T) {
	e := newTestEngine(t, askTwice())
	ctx := context.Background()

	cases := []domain.DialogState{
		{Stack: []domain.DialogInstance{{Dialog: "retired", Cursor: 0}}},
		{Stack: []domain.DialogInstance{{Dialog: "ask", Cursor: 7}}},
		{Stack: []domain.DialogInstance{{Dialog: "ask", Cursor: domain.Popped}}},
	}
	for _, st := range cases {
		res, err := e.Continue(ctx, &st, "hi", nil)
		require.NoError(t, err)
		require.Equal(t, StatusEmpty, res.Status)
		require.Nil(t, st.Active())
	}
}

func TestSet_AddValidation(t *testing.T) {
	noop := func(_ *StepContext) StepOutcome { return Complete("") }

	s := NewSet()
	require.Error(t, s.Add(Definition{Name: " ", Steps: []NamedStep{{Run: noop}}}))
	require.Error(t, s.Add(Definition{Name: "x"}))
	require.Error(t, s.Add(Definition{Name: "x", Steps: []NamedStep{{Name: "nil"}}}))

	require.NoError(t, s.Add(Definition{Name: "x", Steps: []NamedStep{{Run: noop}}}))
	err := s.Add(Definition{Name: "x", Steps: []NamedStep{{Run: noop}}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")

	_, err = NewEngine(s, nil)
	require.NoError(t, err)
	require.ErrorIs(t, s.Add(Definition{Name: "y", Steps: []NamedStep{{Run: noop}}}), ErrSetFrozen)

	_, ok := s.Get("x")
	require.True(t, ok)
}

func TestNormalize(t *testing.T) {
	require.Equal(t, "yes", Normalize("  YeS\t"))
	require.Equal(t, "", Normalize("   "))
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "empty", StatusEmpty.String())
	require.Equal(t, "waiting", StatusWaiting.String())
	require.Equal(t, "complete", StatusComplete.String())
}
