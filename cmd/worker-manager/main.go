// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"applicant-workers/internal/common/aws"
	"applicant-workers/internal/common/camunda"
	"applicant-workers/internal/common/config"
	"applicant-workers/internal/common/database"
	"applicant-workers/internal/common/logger"
	"applicant-workers/internal/common/observability"
	"applicant-workers/internal/events"
	"applicant-workers/internal/ledger"
	"applicant-workers/internal/oracle"
	"applicant-workers/internal/scoring"
	"applicant-workers/internal/search"
	"applicant-workers/internal/store"
	"applicant-workers/internal/trigger"
	pna "applicant-workers/internal/workers/applicant/process-new-applicant"
	"applicant-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("trigger", cfg.Trigger.Mode),
		zap.String("oracle", cfg.Scoring.OracleBackend),
	)

	checkRegistry(cfg.App.RegistryPath, config.GetWorkerConfig(cfg, pna.TaskType), zapLog)

	obs := observability.New("applicant-workers")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- MongoDB ---
	var mongoClient *database.MongoClient
	err = retryWithBackoff(func() error {
		var err error
		mongoClient, err = database.NewMongo(ctx, cfg.Database.Mongo)
		if err != nil {
			return err
		}
		return mongoClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "MongoDB connection")
	if err != nil {
		zapLog.Fatal("mongodb failed after retries", zap.Error(err))
	}
	defer func() { _ = mongoClient.Close() }()
	zapLog.Info("MongoDB connected successfully")

	// --- Redis ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()
	zapLog.Info("Redis connected successfully")

	sinks := buildSinks(ctx, cfg, zapLog)

	scoringOracle, closeOracle, err := buildOracle(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("oracle init failed", zap.Error(err))
	}
	defer closeOracle()

	collections := cfg.Database.Mongo.Collections
	questionRepo := store.NewQuestionRepo(mongoClient.DB.Collection(collections.Questions))

	handler, err := pna.NewHandler(pna.HandlerOptions{
		Config:     pna.NewConfig(cfg),
		Applicants: store.NewApplicantRepo(mongoClient.DB.Collection(collections.Applicants)),
		Questions: store.NewCachedQuestions(questionRepo, redisClient.Client,
			config.GetDuration(cfg.Scoring.SchemaCacheTTL), log),
		Thresholds: store.NewTenantRepo(mongoClient.DB.Collection(collections.Tenants)),
		Locker:     store.NewLocker(redisClient.Client, config.GetDuration(cfg.Scoring.LockTTL)),
		Dispatcher: scoring.NewDispatcher(scoringOracle, scoring.DispatcherOptions{
			Backend:     cfg.Scoring.OracleBackend,
			Concurrency: cfg.Scoring.OracleConcurrency,
			CallTimeout: config.GetDuration(cfg.Scoring.OracleTimeout),
		}, log),
		Router:        scoring.NewRouter(cfg.Scoring.StatusPass, cfg.Scoring.StatusReview),
		Sinks:         sinks,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create process-new-applicant handler", zap.Error(err))
	}

	// --- Zeebe trigger ---
	var (
		zeebe  *camunda.Client
		worker *camunda.Worker
	)
	if cfg.Trigger.ZeebeEnabled() {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: cfg.Camunda.Plaintext,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		worker = camunda.StartWorker(zeebe.GetClient(), pna.TaskType,
			config.GetWorkerConfig(cfg, pna.TaskType), handler.Handle, zapLog)
	}

	// --- Change stream trigger ---
	var watchers sync.WaitGroup
	if cfg.Trigger.ChangeStreamEnabled() {
		watcher := trigger.NewChangeStreamWatcher(
			mongoClient.DB.Collection(collections.Applicants),
			handler,
			trigger.ChangeStreamOptions{
				MaxConcurrent: cfg.Trigger.MaxConcurrent,
				RunTimeout:    config.GetDuration(config.GetWorkerConfig(cfg, pna.TaskType).Timeout),
			},
			log,
		)
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			if err := watcher.Run(ctx); err != nil {
				zapLog.Error("change stream watcher stopped", zap.Error(err))
			}
		}()
		zapLog.Info("Change stream watcher started", zap.String("collection", collections.Applicants))
	}

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr: cfg.Server.Address,
		Handler: newHealthRouter([]readinessCheck{
			{name: "mongo", check: mongoClient.Ping},
			{name: "redis", check: redisClient.Ping},
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	worker.Stop()
	cancel()
	watchers.Wait()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns when the activity registry does not declare the task
// types this process serves.
func checkRegistry(path string, wcfg config.WorkerConfig, zapLog *zap.Logger) {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		zapLog.Warn("activity registry not loaded", zap.String("path", path), zap.Error(err))
		return
	}
	if err := reg.Validate(); err != nil {
		zapLog.Warn("activity registry invalid", zap.String("path", path), zap.Error(err))
		return
	}
	activity, ok := reg.Find(pna.TaskType)
	if !ok {
		zapLog.Warn("task type missing from activity registry", zap.String("taskType", pna.TaskType))
		return
	}
	if timeout, err := activity.TimeoutDuration(); err == nil && timeout > 0 &&
		wcfg.Timeout > 0 && timeout != config.GetDuration(wcfg.Timeout) {
		zapLog.Warn("worker timeout differs from registry",
			zap.Duration("registry", timeout),
			zap.Duration("configured", config.GetDuration(wcfg.Timeout)),
		)
	}
	zapLog.Info("activity registered",
		zap.String("taskType", activity.TaskType),
		zap.String("version", activity.Version),
		zap.String("status", activity.Status),
		zap.Strings("triggers", activity.Triggers),
	)
}

// buildOracle returns the configured scoring backend and its cleanup.
func buildOracle(ctx context.Context, cfg *config.Config, log logger.Logger) (oracle.Oracle, func(), error) {
	switch cfg.Scoring.OracleBackend {
	case "vertex":
		v, err := oracle.NewVertexOracle(ctx, oracle.VertexConfig{
			Project:     cfg.APIs.Vertex.Project,
			Location:    cfg.APIs.Vertex.Location,
			Model:       cfg.APIs.Vertex.Model,
			Temperature: cfg.APIs.Vertex.Temperature,
		})
		if err != nil {
			return nil, nil, err
		}
		return v, func() { _ = v.Close() }, nil
	default:
		g := oracle.NewGenAIOracle(oracle.GenAIConfig{
			BaseURL:     cfg.APIs.GenAI.BaseURL,
			Path:        cfg.APIs.GenAI.Path,
			APIKey:      cfg.APIs.GenAI.APIKey,
			Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
			MaxRetries:  cfg.APIs.GenAI.MaxRetries,
			MaxTokens:   cfg.APIs.GenAI.MaxTokens,
			Temperature: cfg.APIs.GenAI.Temperature,
		}, log)
		return g, func() {}, nil
	}
}

// buildSinks connects the optional result sinks. A sink whose backend cannot
// be reached is left out; scoring still runs.
func buildSinks(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) []pna.ResultSink {
	var sinks []pna.ResultSink

	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err == nil {
			l := ledger.New(pg.DB)
			err = l.EnsureSchema(ctx)
			if err == nil {
				sinks = append(sinks, l)
			}
		}
		if err != nil {
			zapLog.Error("scoring ledger disabled", zap.Error(err))
		}
	}

	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Error("search indexing disabled", zap.Error(err))
		} else {
			sinks = append(sinks, search.NewIndexer(es.Client, cfg.Database.Elasticsearch.Index))
		}
	}

	if sns := cfg.Notifications.SNS; sns.Enabled {
		client, err := aws.NewSNSClient(ctx, sns.Region)
		if err != nil {
			zapLog.Error("scored-applicant events disabled", zap.Error(err))
		} else {
			sinks = append(sinks, events.NewPublisher(client, sns.TopicARN))
		}
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	zapLog.Info("Result sinks configured", zap.Strings("sinks", names))
	return sinks
}
