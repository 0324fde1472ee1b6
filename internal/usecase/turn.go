package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fun-bot/internal/dialog"
	"fun-bot/internal/domain"
)

type StateStore interface {
	LoadConversation(ctx context.Context, conversationID string) (domain.DialogState, error)
	SaveConversation(ctx context.Context, conversationID string, st domain.DialogState) error
	LoadUser(ctx context.Context, userID string) (domain.UserProfile, error)
	SaveUser(ctx context.Context, userID string, p domain.UserProfile) error
}

type DialogRunner interface {
	Begin(ctx context.Context, st *domain.DialogState, name string, profile *domain.UserProfile) (dialog.Result, error)
	Continue(ctx context.Context, st *domain.DialogState, reply string, profile *domain.UserProfile) (dialog.Result, error)
}

// TurnService processes one inbound activity to completion: load state,
// advance the dialog at most one step, save state.
type TurnService struct {
	state         StateStore
	dialogs       DialogRunner
	defaultDialog string
	logger        *slog.Logger
	now           func() time.Time
}

type TurnOutput struct {
	ConversationID string
	Replies        []domain.Reply
	// Ignored is set when the activity lacked the ids needed to key state.
	Ignored bool
}

func NewTurnService(s StateStore, d DialogRunner, logger *slog.Logger) (*TurnService, error) {
	if s == nil {
		return nil, errors.New("usecase: state store must not be nil")
	}
	if d == nil {
		return nil, errors.New("usecase: dialog runner must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TurnService{
		state:         s,
		dialogs:       d,
		defaultDialog: DefaultDialog,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// OnTurn handles a single activity. Callers must not run two turns for the
// same conversation concurrently.
func (s *TurnService) OnTurn(ctx context.Context, act domain.Activity) (TurnOutput, error) {
	convID := strings.TrimSpace(act.Conversation.ID)
	userID := strings.TrimSpace(act.From.ID)
	if convID == "" || userID == "" {
		s.logger.WarnContext(ctx, "ignoring activity without conversation or sender id",
			"type", act.Type, "conversation_id", convID, "from_id", userID)
		return TurnOutput{ConversationID: convID, Ignored: true}, nil
	}

	profile, err := s.state.LoadUser(ctx, userID)
	if err != nil {
		return TurnOutput{}, newError(ErrorPersistence, "load_user_error", err)
	}
	dstate, err := s.state.LoadConversation(ctx, convID)
	if err != nil {
		return TurnOutput{}, newError(ErrorPersistence, "load_conversation_error", err)
	}
	loaded := profile
	profile.UserID = userID
	profile.LastSeen = s.now().UTC()

	var replies []domain.Reply
	switch act.Type {
	case domain.ActivityMessage:
		replies, err = s.onMessage(ctx, &dstate, act.Text, &profile)
		if err != nil {
			return TurnOutput{}, newError(ErrorInternal, "dialog_error", err)
		}
	case domain.ActivityConversationUpdate:
		replies = s.greet(act)
	default:
		s.logger.DebugContext(ctx, "ignoring activity type", "type", act.Type)
	}

	if err := s.state.SaveUser(ctx, userID, profile); err != nil {
		return TurnOutput{}, newError(ErrorPersistence, "save_user_error", err)
	}
	if err := s.state.SaveConversation(ctx, convID, dstate); err != nil {
		// Put the profile back so a retried activity replays from the same state.
		if rbErr := s.state.SaveUser(ctx, userID, loaded); rbErr != nil {
			s.logger.ErrorContext(ctx, "failed to restore user profile", "user_id", userID, "err", rbErr)
		}
		return TurnOutput{}, newError(ErrorPersistence, "save_conversation_error", err)
	}

	for i := range replies {
		replies[i].ConversationID = convID
	}
	return TurnOutput{ConversationID: convID, Replies: replies}, nil
}

// onMessage resumes the active dialog and begins the default one only when
// nothing was sent and no dialog is left running.
func (s *TurnService) onMessage(ctx context.Context, st *domain.DialogState, text string, profile *domain.UserProfile) ([]domain.Reply, error) {
	res, err := s.dialogs.Continue(ctx, st, text, profile)
	if err != nil {
		return nil, err
	}
	replies := res.Replies
	if len(replies) > 0 || st.Active() != nil {
		return replies, nil
	}

	res, err = s.dialogs.Begin(ctx, st, s.defaultDialog, profile)
	if err != nil {
		return nil, err
	}
	return append(replies, res.Replies...), nil
}

// greet welcomes every added member except the bot itself.
func (s *TurnService) greet(act domain.Activity) []domain.Reply {
	var replies []domain.Reply
	for _, m := range act.MembersAdded {
		if m.ID == act.Recipient.ID {
			continue
		}
		member := m
		replies = append(replies, domain.Reply{
			Kind:      domain.ReplyMessage,
			Text:      greetingText,
			Recipient: &member,
		})
	}
	return replies
}
