package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/askbot/backend/internal/model/chat"
	chatService "github.com/zhouzirui/askbot/backend/internal/service/chat"
	"github.com/zhouzirui/askbot/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc  *chatService.Service
	answerer chatService.Answerer
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, answerer chatService.Answerer) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		answerer: answerer,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Post("/messages", h.handleSendMessage)
	r.Post("/ask", h.handleAsk)
}

type sessionResponse struct {
	Session  chat.Session   `json:"session"`
	Messages []chat.Message `json:"messages"`
}

// handleCreateSession 创建会话，返回包含欢迎语的初始记录
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	messages, err := h.chatSvc.LoadTranscript(r.Context(), session.ID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{Session: session, Messages: messages})
}

// handleListMessages 返回会话的完整记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

type sendMessageResponse struct {
	Intent   string         `json:"intent"`
	Provider string         `json:"provider,omitempty"`
	User     chat.Message   `json:"user"`
	Messages []chat.Message `json:"messages"`
}

// handleSendMessage 保存用户消息并返回机器人的分块回复
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Content   string `json:"content"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.chatSvc.Ask(r.Context(), payload.SessionID, payload.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sendMessageResponse{
		Intent:   string(turn.Reply.Intent),
		Provider: string(turn.Reply.Provider),
		User:     turn.User,
		Messages: turn.Messages,
	})
}

// handleAsk 无会话的一次性问答
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query := strings.TrimSpace(payload.Query)
	if query == "" {
		utils.RespondError(w, http.StatusBadRequest, "query is required")
		return
	}

	utils.RespondJSON(w, http.StatusOK, h.answerer.SubmitQuery(r.Context(), query))
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chatService.ErrEmptyQuery):
		utils.RespondError(w, http.StatusBadRequest, "content is required")
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}
