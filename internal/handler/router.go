package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/askbot/backend/internal/handler/chat"
	"github.com/zhouzirui/askbot/backend/internal/handler/stream"
	"github.com/zhouzirui/askbot/backend/internal/handler/ws"
	"github.com/zhouzirui/askbot/backend/internal/logging"
	middlewarePkg "github.com/zhouzirui/askbot/backend/internal/middleware"
	chatService "github.com/zhouzirui/askbot/backend/internal/service/chat"
	"github.com/zhouzirui/askbot/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(chatSvc *chatService.Service, answerer chatService.Answerer, logger *zap.Logger) http.Handler {
	logger = logging.OrNop(logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	chatHandler := chat.New(chatSvc, answerer)
	streamHandler := stream.New(chatSvc, logger)
	wsHandler := ws.New(chatSvc, logger)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage)
			switch {
			case err == nil:
			case errors.Is(err, chatService.ErrSessionNotFound):
				utils.RespondError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, stream.ErrNoQuery):
				utils.RespondError(w, http.StatusBadRequest, err.Error())
			default:
				logger.Error("stream request failed", zap.String("session", sessionID), zap.Error(err))
				utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
			}
		})
	})

	return r
}
