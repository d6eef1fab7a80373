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

	"vapi-proxy/internal/config"
	"vapi-proxy/internal/handlers"
	"vapi-proxy/internal/logging"
	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/middleware"
	"vapi-proxy/internal/router"
	"vapi-proxy/internal/services"
)

func main() {
	// ──── Step 1: Load Configuration ────
	cfg, err := config.Load()
	if err != nil {
		// Missing upstream credentials are fatal: never serve degraded traffic.
		log.Fatalf("✗ Configuration error: %v", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("✗ Logger initialization failed: %v", err)
	}
	logger.Info("configuration loaded", "env", cfg.Env, "dev_mode", cfg.DevMode, "version", config.Version)

	m := metrics.New()

	// ──── Step 2: Rate Limiters ────
	chatLimiter := middleware.NewRateLimiter(middleware.RateLimitPolicy{
		Name:    "chat",
		Limit:   cfg.ChatRateLimit.Limit,
		Window:  cfg.ChatRateLimit.Window,
		Message: "Too many requests, please try again later",
	}, logger, m)
	configLimiter := middleware.NewRateLimiter(middleware.RateLimitPolicy{
		Name:    "config",
		Limit:   cfg.ConfigRateLimit.Limit,
		Window:  cfg.ConfigRateLimit.Window,
		Message: "Too many config requests",
	}, logger, m)

	janitor := services.NewJanitor(cfg.SweepInterval, logger, chatLimiter, configLimiter)
	if err := janitor.Start(); err != nil {
		logger.Error("rate limit janitor failed to start", "error", err)
		os.Exit(1)
	}

	// ──── Step 3: Upstream Client ────
	vapi := services.NewVapiClient(services.VapiConfig{
		BaseURL:     cfg.VapiBaseURL,
		APIKey:      cfg.VapiAPIKey,
		AssistantID: cfg.VapiAssistantID,
		Timeout:     cfg.VapiTimeout,
	}, logger, m)

	// ──── Step 4: HTTP Edge ────
	r := router.New(router.Options{
		Logger:            logger,
		Metrics:           m,
		CORS:              middleware.NewCORSGuard(middleware.DefaultCORSConfig(cfg.AllowedOrigins), logger, m),
		ChatLimiter:       chatLimiter,
		ConfigLimiter:     configLimiter,
		ChatHandler:       handlers.NewChatHandler(vapi, logger, m, cfg.DevMode),
		ConfigHandler:     handlers.NewConfigHandler(cfg.VapiAssistantID, cfg.VapiPublicAPIKey, logger),
		SecurityHandler:   handlers.NewSecurityHandler(logger, m),
		DevMode:           cfg.DevMode,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		ExposeMetrics:     cfg.MetricsEnabled,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.VapiTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("shutting down", "signal", sig.String())
		janitor.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("vapi proxy ready",
		"addr", server.Addr,
		"allowed_origins", cfg.AllowedOrigins,
		"permissive_cors", cfg.PermissiveCORS(),
		"chat_limit", cfg.ChatRateLimit.Limit,
		"chat_window", cfg.ChatRateLimit.Window.String(),
		"trust_proxy_headers", cfg.TrustProxyHeaders,
		"metrics", cfg.MetricsEnabled,
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
