package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rmolinamir/alphawave/api/handlers"
	"github.com/rmolinamir/alphawave/audit"
	"github.com/rmolinamir/alphawave/bot"
	"github.com/rmolinamir/alphawave/config"
	"github.com/rmolinamir/alphawave/internal/metrics"
	"github.com/rmolinamir/alphawave/internal/server"
	"github.com/rmolinamir/alphawave/internal/telemetry"
	"github.com/rmolinamir/alphawave/memory"
	"github.com/rmolinamir/alphawave/models"
	"github.com/rmolinamir/alphawave/prompts"
	"github.com/rmolinamir/alphawave/store"
	"github.com/rmolinamir/alphawave/types"
	"github.com/rmolinamir/alphawave/wave"
)

// Server wires configuration into the running service: the completion model,
// per-conversation waves, the Telegram adapter, the operational HTTP API and
// the metrics endpoint.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	collector *metrics.Collector
	telemetry *telemetry.Providers

	model       models.PromptCompletionModel
	redisClient *redis.Client
	store       *store.SQLStore
	audit       audit.Writer
	mongoWriter *audit.MongoWriter

	waveHandler *bot.WaveHandler
	adapter     *bot.TelegramAdapter

	healthHandler *handlers.HealthHandler

	// bgCtx scopes the polling loop, the rate limiter cleanup and the pool
	// stats sampler.
	bgCtx    context.Context
	bgCancel context.CancelFunc
	group    *errgroup.Group
}

// NewServer creates a server from validated configuration.
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers) *Server {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	group, bgCtx := errgroup.WithContext(bgCtx)
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: providers,
		bgCtx:     bgCtx,
		bgCancel:  bgCancel,
		group:     group,
	}
}

// Start brings up every component. It returns once the HTTP listeners are
// accepting; the bot polling loop, if any, runs until shutdown.
func (s *Server) Start() error {
	s.collector = metrics.NewCollector("alphawave", s.logger)

	if err := s.initDependencies(); err != nil {
		return fmt.Errorf("failed to init dependencies: %w", err)
	}

	if err := s.initBot(); err != nil {
		return fmt.Errorf("failed to init bot: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.startBackgroundTasks()

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("bot_enabled", s.adapter != nil),
	)

	return nil
}

func (s *Server) initDependencies() error {
	var err error

	s.model, err = s.buildModel()
	if err != nil {
		return err
	}

	if s.cfg.Redis.Enabled {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		})
		pingCtx, cancel := context.WithTimeout(s.bgCtx, 5*time.Second)
		err := s.redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		s.logger.Info("redis connected", zap.String("addr", s.cfg.Redis.Addr))
	}

	s.store, err = store.Open(store.Config{
		Driver:          s.cfg.Database.Driver,
		DSN:             s.cfg.Database.DSN(),
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		MaxOpenConns:    s.cfg.Database.MaxOpenConns,
		ConnMaxLifetime: s.cfg.Database.ConnMaxLifetime,
		Recorder:        s.collector,
	}, s.logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	s.audit = audit.NewNopWriter()
	if s.cfg.Mongo.Enabled {
		w, err := audit.NewMongoWriter(s.bgCtx, audit.MongoConfig{
			URI:           s.cfg.Mongo.URI,
			Database:      s.cfg.Mongo.Database,
			Collection:    s.cfg.Mongo.Collection,
			BufferSize:    s.cfg.Mongo.BufferSize,
			FlushInterval: s.cfg.Mongo.FlushInterval,
			BatchSize:     s.cfg.Mongo.BatchSize,
		}, s.logger)
		if err != nil {
			return fmt.Errorf("mongo audit writer: %w", err)
		}
		s.mongoWriter = w
		s.audit = w
	}

	return nil
}

func (s *Server) buildModel() (models.PromptCompletionModel, error) {
	mc := s.cfg.Model
	temperature := float32(mc.Temperature)

	switch mc.Provider {
	case "openai", "":
		baseURL := mc.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com"
		}
		return models.NewOpenAIModel(models.OpenAIConfig{
			APIKey:            mc.APIKey,
			BaseURL:           baseURL,
			DefaultModel:      mc.Name,
			Timeout:           mc.Timeout,
			MaxTokens:         mc.MaxTokens,
			Temperature:       &temperature,
			RequestsPerSecond: mc.RequestsPerSecond,
			Retry:             &models.RetryPolicy{MaxRetries: mc.MaxRetries},
		}, s.logger), nil
	case "gemini":
		return models.NewGeminiModel(models.GeminiConfig{
			APIKey:          mc.APIKey,
			DefaultModel:    mc.Name,
			Temperature:     &temperature,
			MaxOutputTokens: int32(mc.MaxTokens),
		}, s.logger), nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", mc.Provider)
	}
}

// waveFactory builds one wave per conversation. Every wave shares the model
// and collector; memory is per conversation, backed by Redis when enabled so
// histories survive restarts and replicas.
func (s *Server) waveFactory() bot.WaveFactory {
	wc := s.cfg.Wave
	return func(conversationID string) (*wave.AlphaWave, error) {
		var mem memory.Memory
		if s.redisClient != nil {
			rm := memory.NewRedisMemory(s.redisClient, conversationID, s.logger)
			if s.cfg.Redis.TTL > 0 {
				rm = rm.WithTTL(s.cfg.Redis.TTL)
			}
			mem = rm
		}

		sections := []prompts.Section{}
		if wc.SystemPrompt != "" {
			sections = append(sections, prompts.NewSystemMessage(wc.SystemPrompt))
		}
		sections = append(sections,
			prompts.NewConversationHistory(wc.MaxHistoryMessages),
			prompts.NewTemplateSection(types.RoleUser, "{{$input}}"),
		)

		return wave.New(wave.Options{
			Model:                 s.model,
			Prompt:                prompts.NewPrompt(sections...),
			Memory:                mem,
			MaxHistoryMessages:    wc.MaxHistoryMessages,
			MaxInputTokens:        wc.MaxInputTokens,
			MaxRepairAttempts:     wc.MaxRepairAttempts,
			RetryInvalidResponses: wc.RetryInvalidResponses,
			Logger:                s.logger,
			Tracer:                otel.Tracer("alphawave/wave"),
			Recorder:              s.collector,
		})
	}
}

func (s *Server) initBot() error {
	handlerOpts := []bot.WaveHandlerOption{
		bot.WithLogger(s.logger),
		bot.WithStore(s.store),
		bot.WithAudit(s.audit),
	}
	if s.cfg.Bot.InvalidReply != "" {
		handlerOpts = append(handlerOpts, bot.WithInvalidReply(s.cfg.Bot.InvalidReply))
	}
	s.waveHandler = bot.NewWaveHandler(s.waveFactory(), handlerOpts...)

	if s.cfg.Bot.Token == "" {
		s.logger.Info("bot token not configured, telegram transport disabled")
		return nil
	}

	api, err := tgbotapi.NewBotAPI(s.cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("telegram connect: %w", err)
	}

	s.adapter = bot.NewTelegramAdapter(api, s.waveHandler,
		bot.WithAdapterLogger(s.logger),
		bot.WithHandleTimeout(s.cfg.Bot.HandleTimeout),
		bot.WithUpdateRecorder(s.collector),
	)

	if s.cfg.Bot.WebhookURL != "" {
		if err := s.adapter.SetWebhook(s.cfg.Bot.WebhookURL); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		s.logger.Info("webhook registered", zap.String("url", s.cfg.Bot.WebhookURL))
	}

	return nil
}

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("database", s.store.Ping))
	if s.redisClient != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}))
	}

	mux.HandleFunc("/health", s.healthHandler.HandleHealth)
	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/ready", s.healthHandler.HandleReady)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("/version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	validateHandler := handlers.NewValidateHandler(s.logger)
	mux.HandleFunc("/v1/validate", validateHandler.HandleValidate)

	wsHandler := handlers.NewChatSocketHandler(s.waveHandler, s.logger)
	mux.Handle("/v1/chat/ws", wsHandler)

	if s.adapter != nil {
		mux.Handle(s.cfg.Bot.WebhookPath, s.adapter)
	}

	skipAuthPaths := []string{"/health", "/healthz", "/ready", "/readyz", "/version"}
	chain := []Middleware{
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
	}
	if s.cfg.Server.RateLimitRPS > 0 {
		chain = append(chain, RateLimiter(s.bgCtx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger))
	}
	if s.cfg.Auth.APIKey != "" {
		chain = append(chain, APIKeyAuth([]string{s.cfg.Auth.APIKey}, skipAuthPaths, s.logger))
	}
	if s.cfg.Auth.JWTSecret != "" {
		chain = append(chain, JWTAuth(s.cfg.Auth.JWTSecret, skipAuthPaths, s.logger))
	}
	handler := Chain(mux, chain...)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("http server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

func (s *Server) startBackgroundTasks() {
	// Long polling is the webhook's stand-in when no public URL is
	// configured.
	if s.adapter != nil && s.cfg.Bot.WebhookURL == "" {
		s.group.Go(func() error {
			err := s.adapter.RunPolling(s.bgCtx)
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	// Sample the store's pool gauges.
	s.group.Go(func() error {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.bgCtx.Done():
				return nil
			case <-ticker.C:
				stats, err := s.store.Stats()
				if err != nil {
					continue
				}
				s.collector.RecordDBConnections(s.cfg.Database.Driver, stats.OpenConnections, stats.Idle)
			}
		}
	})
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a server error, then shuts
// everything down.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops background work and closes every component in reverse
// start order.
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")

	s.bgCancel()
	if err := s.group.Wait(); err != nil {
		s.logger.Error("background task error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("http server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if s.mongoWriter != nil {
		if err := s.mongoWriter.Close(ctx); err != nil {
			s.logger.Error("audit writer shutdown error", zap.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("store close error", zap.Error(err))
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("redis close error", zap.Error(err))
		}
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("graceful shutdown completed")
}
