package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/logging"
	chatService "github.com/zhouzirui/askbot/backend/internal/service/chat"
	"github.com/zhouzirui/askbot/backend/pkg/utils"
)

// ErrNoQuery is returned when neither a message nor an earlier user query is available.
var ErrNoQuery = errors.New("message query parameter is required")

// Handler delivers one bot turn as Server-Sent Events, one event per chunk.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates a new stream handler
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, logger: logging.OrNop(logger)}
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	SessionID string `json:"sessionId,omitempty"`
	Index     int    `json:"index"`
	Content   string `json:"content,omitempty"`
	Intent    string `json:"intent,omitempty"`
	Provider  string `json:"provider,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest answers userMessage, or re-answers the session's latest
// user query when userMessage is blank.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	query, err := h.resolveQuery(ctx, sessionID, userMessage)
	if err != nil {
		return err
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", StreamResponse{SessionID: sessionID})

	turn, err := h.chatSvc.Ask(ctx, sessionID, query)
	if err != nil {
		utils.SendSSEEvent(w, flusher, "error", StreamResponse{SessionID: sessionID, Error: err.Error()})
		return nil
	}

	for i, msg := range turn.Messages {
		utils.SendSSEEvent(w, flusher, "chunk", StreamResponse{
			SessionID: sessionID,
			Index:     i,
			Content:   msg.Content,
			Intent:    msg.Intent,
			Provider:  msg.Provider,
			MessageID: msg.ID,
		})
	}

	utils.SendSSEEvent(w, flusher, "end", StreamResponse{
		SessionID: sessionID,
		Index:     len(turn.Messages),
		Intent:    string(turn.Reply.Intent),
		Provider:  string(turn.Reply.Provider),
		Finished:  true,
	})

	h.logger.Info("stream completed",
		zap.String("session", sessionID),
		zap.String("intent", string(turn.Reply.Intent)),
		zap.Int("chunks", len(turn.Messages)))
	return nil
}

func (h *Handler) resolveQuery(ctx context.Context, sessionID, userMessage string) (string, error) {
	if _, err := h.chatSvc.GetSession(ctx, sessionID); err != nil {
		return "", err
	}

	if query := strings.TrimSpace(userMessage); query != "" {
		return query, nil
	}

	query, err := h.chatSvc.LastUserQuery(ctx, sessionID)
	if errors.Is(err, chatService.ErrNoUserQuery) {
		return "", ErrNoQuery
	}
	return query, err
}
