package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"fun-bot/internal/domain"
	"fun-bot/internal/usecase"
)

const channelID = "telegram"

type TurnProcessor interface {
	OnTurn(ctx context.Context, act domain.Activity) (usecase.TurnOutput, error)
}

// Bot relays Telegram updates through the turn service. Updates are handled
// one at a time, so turns for a chat never overlap.
type Bot struct {
	s      sender
	botID  int64
	turns  TurnProcessor
	logger *slog.Logger
}

// New connects to the Bot API with token.
func New(token string, turns TurnProcessor, logger *slog.Logger) (*Bot, *tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, nil, errors.New("telegram: bot token must not be empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, fmt.Errorf("telegram: connect: %w", err)
	}
	b, err := newBot(botAPISender{api: api}, api.Self.ID, turns, logger)
	if err != nil {
		return nil, nil, err
	}
	return b, api, nil
}

func newBot(s sender, botID int64, turns TurnProcessor, logger *slog.Logger) (*Bot, error) {
	if turns == nil {
		return nil, errors.New("telegram: turn processor must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{s: s, botID: botID, turns: turns, logger: logger}, nil
}

// Run consumes updates until ctx is cancelled or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u tgbotapi.Update) {
	act, ok := toActivity(u, b.botID)
	if !ok {
		return
	}
	out, err := b.turns.OnTurn(ctx, act)
	if err != nil {
		b.logger.ErrorContext(ctx, "turn failed", "chat_id", act.Conversation.ID, "err", err)
		return
	}
	for _, r := range out.Replies {
		msg, err := render(r)
		if err != nil {
			b.logger.ErrorContext(ctx, "render reply", "err", err)
			continue
		}
		if _, err := b.s.Send(msg); err != nil {
			b.logger.ErrorContext(ctx, "send reply", "chat_id", msg.ChatID, "err", err)
		}
	}
}

// toActivity maps a chat message onto an activity. Updates without a
// message or sender (edits, channel posts, callbacks) are skipped.
func toActivity(u tgbotapi.Update, botID int64) (domain.Activity, bool) {
	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return domain.Activity{}, false
	}
	act := domain.Activity{
		Type:         domain.ActivityMessage,
		ID:           strconv.Itoa(m.MessageID),
		ChannelID:    channelID,
		Conversation: domain.ConversationAccount{ID: strconv.FormatInt(m.Chat.ID, 10)},
		From:         account(*m.From),
		Recipient:    domain.ChannelAccount{ID: strconv.FormatInt(botID, 10)},
		Text:         m.Text,
	}
	if len(m.NewChatMembers) > 0 {
		act.Type = domain.ActivityConversationUpdate
		act.Text = ""
		for _, member := range m.NewChatMembers {
			act.MembersAdded = append(act.MembersAdded, account(member))
		}
	}
	if m.LeftChatMember != nil {
		act.Type = domain.ActivityConversationUpdate
		act.Text = ""
		act.MembersRemoved = append(act.MembersRemoved, account(*m.LeftChatMember))
	}
	return act, true
}

func account(u tgbotapi.User) domain.ChannelAccount {
	name := u.UserName
	if name == "" {
		name = u.FirstName
	}
	return domain.ChannelAccount{ID: strconv.FormatInt(u.ID, 10), Name: name}
}

// render turns a reply into a send config. Choice prompts get a one-time
// keyboard; everything else clears any keyboard left on screen.
func render(r domain.Reply) (tgbotapi.MessageConfig, error) {
	chatID, err := strconv.ParseInt(r.ConversationID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram: bad chat id %q: %w", r.ConversationID, err)
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Kind == domain.ReplyChoicePrompt && len(r.Choices) > 0 {
		row := make([]tgbotapi.KeyboardButton, 0, len(r.Choices))
		for _, c := range r.Choices {
			row = append(row, tgbotapi.NewKeyboardButton(c))
		}
		kb := tgbotapi.NewReplyKeyboard(row)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		msg.ReplyMarkup = kb
		return msg, nil
	}
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	return msg, nil
}
