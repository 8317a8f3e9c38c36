package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/agor/internal/application/engine"
	"github.com/aescanero/agor/internal/application/orchestrator"
	"github.com/aescanero/agor/internal/application/stream"
	"github.com/aescanero/agor/internal/application/workers"
	"github.com/aescanero/agor/internal/config"
	eventsmemory "github.com/aescanero/agor/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/agor/pkg/adapters/events/redis"
	"github.com/aescanero/agor/pkg/adapters/llm"
	"github.com/aescanero/agor/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/agor/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/agor/pkg/adapters/storage/redis"
	"github.com/aescanero/agor/pkg/adapters/tools"
	"github.com/aescanero/agor/pkg/api/grpc"
	"github.com/aescanero/agor/pkg/api/http"
	"github.com/aescanero/agor/pkg/api/websocket"
	"github.com/aescanero/agor/pkg/domain"
	"github.com/aescanero/agor/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting agor",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	// Initialize event bus and conversation store. Redis backs both when
	// enabled, otherwise everything stays in process.
	var (
		eventBus    ports.EventBus
		store       ports.ConversationStore
		redisClient *goredis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		ctx := context.Background()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		bus, err := eventsredis.NewStreamsEventBus(
			redisClient,
			"agor-workers",
			fmt.Sprintf("agor-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
		eventBus = bus
		store = storageredis.NewConversationStore(redisClient, cfg.Redis.ThreadTTL, logger)
	} else {
		eventBus = eventsmemory.NewBus()
		store = storagememory.NewConversationStore()
	}

	llmClient, err := llm.NewClient(&llm.Config{
		Provider:     cfg.LLM.Provider,
		APIKey:       cfg.LLM.APIKey,
		DefaultModel: cfg.LLM.DefaultModel,
		MaxTokens:    cfg.LLM.DefaultMaxTokens,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to create LLM client", zap.Error(err))
	}

	toolRegistry := tools.NewRegistry()
	toolRegistry.Register(tools.NewCurrentTime())
	toolRegistry.Register(tools.NewWebSearch())

	metricsCollector := prometheus.NewCollector()

	agents, err := loadAgents(cfg.AgentsFile)
	if err != nil {
		logger.Fatal("failed to load agent roster", zap.Error(err))
	}
	if len(agents) > 0 {
		logger.Info("agent roster loaded", zap.Int("agents", len(agents)))
	}

	// Initialize application components
	runner := engine.NewRunner(llmClient, toolRegistry, metricsCollector, logger, engine.Config{
		SupervisorMaxSteps: cfg.Engine.SupervisorMaxSteps,
		DAGMaxSteps:        cfg.Engine.DAGMaxSteps,
		AgentMaxTurns:      cfg.Engine.AgentMaxTurns,
	})

	runPool := workers.NewPool(
		cfg.Runs.PoolSize,
		metricsCollector,
		logger,
		cfg.Runs.HealthCheckInterval,
	)
	if err := runPool.Start(); err != nil {
		logger.Fatal("failed to start run pool", zap.Error(err))
	}

	validator := orchestrator.NewValidator(toolRegistry)

	orchestratorMgr := orchestrator.NewManager(
		runner,
		store,
		eventBus,
		metricsCollector,
		validator,
		runPool,
		agents,
		stream.Policy{
			MarkupTags:        cfg.Stream.MarkupTags,
			SuppressReasoning: cfg.Stream.SuppressReasoning,
		},
		logger,
		cfg.Timeouts.RunExecutionTimeout,
	)

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Orchestrator: orchestratorMgr,
		Store:        store,
		Logger:       logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Pool:   runPool,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("agor started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("run_pool_size", cfg.Runs.PoolSize))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	// Shutdown components
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if err := runPool.Shutdown(shutdownCtx); err != nil {
		logger.Error("run pool shutdown error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("agor shut down complete")
}

// loadAgents reads the supervisor-mode roster from a JSON file. An
// empty path means no roster; runs must then ship their own graph.
func loadAgents(path string) ([]domain.AgentDefinition, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agents file: %w", err)
	}

	var agents []domain.AgentDefinition
	if err := json.Unmarshal(data, &agents); err != nil {
		return nil, fmt.Errorf("parse agents file: %w", err)
	}

	for _, a := range agents {
		if a.Name == "" {
			return nil, fmt.Errorf("agents file: agent with empty name")
		}
	}

	return agents, nil
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
