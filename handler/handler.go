package handler

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"fun-bot/internal/domain"
	"fun-bot/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type TurnProcessor interface {
	OnTurn(ctx context.Context, act domain.Activity) (usecase.TurnOutput, error)
}

// SecretSource supplies the shared secret channels present as a bearer token.
type SecretSource interface {
	Secret(ctx context.Context) (string, error)
}

type turnResponse struct {
	ConversationID string         `json:"conversationId,omitempty"`
	Activities     []domain.Reply `json:"activities"`
}

type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId"`
}

// Handler adapts API Gateway proxy requests carrying activities to turns.
type Handler struct {
	turns  TurnProcessor
	secret SecretSource
	logger *slog.Logger
}

type Option func(*Handler)

// WithSecret requires every request to carry "Authorization: Bearer <secret>".
func WithSecret(s SecretSource) Option {
	return func(h *Handler) {
		h.secret = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewHandler(turns TurnProcessor, opts ...Option) (*Handler, error) {
	if turns == nil {
		return nil, errors.New("handler: turn processor must not be nil")
	}
	h := &Handler{turns: turns, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle runs one turn for the activity in the request body.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	logger := h.logger.With("correlation_id", corrID)

	if h.secret != nil {
		if err := h.authorize(ctx, req.Headers); err != nil {
			logger.WarnContext(ctx, "rejected request", "err", err)
			return errorJSON(corrID, err), nil
		}
	}

	act, err := decodeActivity(req)
	if err != nil {
		logger.WarnContext(ctx, "invalid activity body", "err", err)
		return errorJSON(corrID, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_body", Err: err}), nil
	}

	out, err := h.turns.OnTurn(ctx, act)
	if err != nil {
		logger.ErrorContext(ctx, "turn failed", "type", act.Type, "conversation_id", act.Conversation.ID, "err", err)
		return errorJSON(corrID, err), nil
	}
	logger.InfoContext(ctx, "turn handled",
		"type", act.Type,
		"conversation_id", out.ConversationID,
		"replies", len(out.Replies),
		"ignored", out.Ignored,
	)

	replies := out.Replies
	if replies == nil {
		replies = []domain.Reply{}
	}
	return jsonResponse(http.StatusOK, corrID, turnResponse{
		ConversationID: out.ConversationID,
		Activities:     replies,
	}), nil
}

func (h *Handler) authorize(ctx context.Context, headers map[string]string) error {
	want, err := h.secret.Secret(ctx)
	if err != nil {
		return &usecase.Error{Code: usecase.ErrorInternal, Reason: "secret_load_error", Err: err}
	}
	got, ok := strings.CutPrefix(headerValue(headers, "Authorization"), "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(want)) != 1 {
		return &usecase.Error{Code: usecase.ErrorUnauthorized, Reason: "bad_channel_secret"}
	}
	return nil
}

func decodeActivity(req events.APIGatewayProxyRequest) (domain.Activity, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return domain.Activity{}, err
		}
		body = decoded
	}
	var act domain.Activity
	if err := json.Unmarshal(body, &act); err != nil {
		return domain.Activity{}, err
	}
	return act, nil
}

// headerValue looks a header up case-insensitively; API Gateway passes them
// through as sent.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorUnauthorized:
		return http.StatusUnauthorized
	case usecase.ErrorPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(corrID string, err error) events.APIGatewayProxyResponse {
	code := usecase.ErrorInternal
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		code = ucErr.Code
	}
	return jsonResponse(statusFor(code), corrID, errorResponse{Error: string(code), CorrelationID: corrID})
}

func jsonResponse(status int, corrID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(body),
	}
}
