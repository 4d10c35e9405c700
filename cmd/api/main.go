package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/askbot/backend/internal/analysis/intent"
	"github.com/zhouzirui/askbot/backend/internal/config"
	"github.com/zhouzirui/askbot/backend/internal/handler"
	"github.com/zhouzirui/askbot/backend/internal/logging"
	"github.com/zhouzirui/askbot/backend/internal/service/answer"
	"github.com/zhouzirui/askbot/backend/internal/service/chat"
	"github.com/zhouzirui/askbot/backend/internal/service/provider"
	"github.com/zhouzirui/askbot/backend/internal/service/resolver"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	if envErr != nil {
		logger.Info("no .env file loaded, using system environment only", zap.Error(envErr))
	}

	answerSvc, err := newAnswerService(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize answer service", zap.Error(err))
	}
	chatService := chat.NewService(answerSvc, cfg.Chat.Greeting, logger)

	router := handler.NewRouter(chatService, answerSvc, logger)

	if err := startServer(ctx, cfg.Server, router, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newAnswerService(cfg *config.Config, logger *zap.Logger) (*answer.Service, error) {
	adapters := provider.NewSet(cfg.Provider.Endpoints, provider.Options{
		Client:    &http.Client{},
		Timeout:   cfg.Provider.Timeout,
		UserAgent: cfg.Provider.UserAgent,
		Logger:    logger.Named("provider"),
	})

	res, err := resolver.New(resolver.DefaultChains(), adapters, logger.Named("resolver"))
	if err != nil {
		return nil, err
	}

	classifier := intent.NewClassifier(cfg.Chat.LocationKeywords)
	return answer.NewService(classifier, res, cfg.Chat.ChunkSize, logger.Named("answer")), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("askbot backend listening", zap.String("addr", serverCfg.Addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
