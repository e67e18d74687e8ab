package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/webb-rtk/shintek/internal/application"
	"github.com/webb-rtk/shintek/internal/config"
	"github.com/webb-rtk/shintek/internal/domain/ports/adapter"
	aiAdapters "github.com/webb-rtk/shintek/internal/infra/adapters/ai"
	tele "github.com/webb-rtk/shintek/internal/infra/adapters/telegram"
	"github.com/webb-rtk/shintek/internal/infra/logging"
	"github.com/webb-rtk/shintek/internal/infra/metrics"
	red "github.com/webb-rtk/shintek/internal/infra/redis"
	"github.com/webb-rtk/shintek/internal/infra/roles"
	"github.com/webb-rtk/shintek/internal/infra/sched"
	"github.com/webb-rtk/shintek/internal/infra/web"
	"github.com/webb-rtk/shintek/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI backend allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}
	metrics.MustRegister()

	// ---- Redis (rate limiter only; optional) ----
	var limiter *red.RateLimiter
	if cfg.RateLimit.Enabled {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Role configuration ----
	roleStore := roles.NewFileStore(cfg.Roles.File, cfg.AI.DefaultModel)
	roleUC := usecase.NewRoleUseCase(roleStore, logger)
	if _, err := roleUC.GetDefaultRole(ctx); err != nil {
		log.Fatalf("role config: %v", err)
	}

	// ---- Session store ----
	sessionUC := usecase.NewSessionUseCase(cfg.Session.Timeout.Std(), logger)

	// ---- AI Adapter (Gemini and/or OpenAI behind a router) ----
	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.GeminiKey != "" {
		gem, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		byProvider["gemini"] = gem
	}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		byProvider["openai"] = oa
	}
	var ai adapter.AIServiceAdapter = aiAdapters.NewMultiAIAdapter(cfg.AI.DefaultProvider, byProvider)
	if len(byProvider) == 0 {
		if !cfg.Runtime.Dev {
			log.Fatalf("no AI provider configured: set ai.gemini_key or ai.openai_key in %s", *cfgPath)
		}
		ai = aiAdapters.NewNoopAIAdapter()
	}

	chatUC := usecase.NewChatUseCase(sessionUC, roleUC, ai, logger)

	// ---- Facade + Telegram ----
	facade := application.NewBotFacade(chatUC, roleUC)
	botAdapter, err := tele.NewRealTelegramBotAdapter(cfg, facade, limiter, logger)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.TokenTTL.Std())
	adminSrv := web.NewServer(roleUC, sessionUC, auth, logger)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminSrv.Router()}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Session sweep worker ----
	worker := sched.NewSweepWorker(cfg.Session.SweepInterval.Std(), sessionUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Shutdown(context.Background())
}
