package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/zhouzirui/gamebot/backend/internal/config"
	"github.com/zhouzirui/gamebot/backend/internal/handler"
	"github.com/zhouzirui/gamebot/backend/internal/logger"
	"github.com/zhouzirui/gamebot/backend/internal/model/chat"
	"github.com/zhouzirui/gamebot/backend/internal/model/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
	"github.com/zhouzirui/gamebot/backend/internal/service/ai"
	"github.com/zhouzirui/gamebot/backend/internal/service/auth"
	chatservice "github.com/zhouzirui/gamebot/backend/internal/service/chat"
	promptservice "github.com/zhouzirui/gamebot/backend/internal/service/prompt"
	"github.com/zhouzirui/gamebot/backend/internal/storage/memory"
	"github.com/zhouzirui/gamebot/backend/internal/storage/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	st, err := openStores(ctx, cfg.Database, zlog)
	if err != nil {
		zlog.Fatal("failed to open storage", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer st.close()

	aiService, err := ai.NewService(ctx, cfg.AI, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize AI service", zap.String("provider", cfg.AI.Provider), zap.Error(err))
	}
	zlog.Info("AI service initialized", zap.String("provider", cfg.AI.Provider), zap.String("model", cfg.AI.Model))

	router := handler.NewRouter(cfg, handler.Services{
		Auth:    auth.NewService(st.users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, zlog),
		Prompts: promptservice.NewService(st.prompts, zlog),
		Chat:    chatservice.NewService(st.sessions, st.prompts, aiService, zlog),
	}, zlog)

	startServer(ctx, cfg.Server, router, zlog)
}

type stores struct {
	users    user.Store
	prompts  prompt.Store
	sessions chat.SessionStore
	close    func()
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, zlog *zap.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		zlog.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			users:    memory.NewUserStore(),
			prompts:  memory.NewPromptStore(),
			sessions: memory.NewSessionStore(),
			close:    func() {},
		}, nil
	case config.StoragePostgres:
		if err := postgres.Migrate(cfg.URL); err != nil {
			return nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.URL, cfg.MaxConns)
		if err != nil {
			return nil, err
		}
		zlog.Info("connected to postgres", zap.Int32("max_conns", cfg.MaxConns))
		return &stores{
			users:    postgres.NewUserStore(pool, zlog),
			prompts:  postgres.NewPromptStore(pool, zlog),
			sessions: postgres.NewSessionStore(pool, zlog),
			close:    pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, zlog *zap.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	zlog.Info("gamebot backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
	zlog.Info("server stopped")
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
