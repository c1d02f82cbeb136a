package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"llm-session-relay/internal/ai"
	"llm-session-relay/internal/app"
	"llm-session-relay/internal/cache"
	"llm-session-relay/internal/config"
	"llm-session-relay/internal/pkg/logger"
	"llm-session-relay/internal/platform/database"
	rabbitmqClient "llm-session-relay/internal/platform/rabbitmq"
	redisClient "llm-session-relay/internal/platform/redis"
	"llm-session-relay/internal/repository"
	"llm-session-relay/internal/secret"
	"llm-session-relay/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	// DB, Redis and MQConn are nil when the matching backend is not configured.
	DB     *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Publisher   *rabbitmqClient.EventPublisher
	AuditWorker *worker.ExchangeAuditWorker
	Sessions    *app.SessionService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	zap.ReplaceGlobals(log)

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	credentials, err := newCredentialProvider(cfg)
	if err != nil {
		return err
	}
	modelClient := newModelClient(cfg, credentials)

	var store app.SessionStore
	if cfg.Storage.Backend == config.StorageMemory {
		store = repository.NewMemoryStore()
	} else {
		db, err := database.Open(ctx, cfg.Storage.Backend, cfg.DatabaseDSN())
		if err != nil {
			return err
		}
		a.DB = db
		if err := repository.Migrate(ctx, db); err != nil {
			return err
		}
		store = repository.NewStore(db)
	}

	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
		windowCache := cache.NewWindowCache(
			client,
			time.Duration(cfg.Redis.WindowTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.WindowDirtyTTLSeconds)*time.Second,
		)
		store = repository.NewCachedStore(store, windowCache)
	}

	opts := app.SessionServiceOptions{
		HistoryWindow: cfg.LLM.HistoryWindow,
		ModelTimeout:  cfg.LLMTimeout(),
	}

	if cfg.RabbitMQ.Enabled {
		queue := cfg.RabbitMQ.ExchangeEventQueue
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, queue)
		if err != nil {
			return err
		}
		a.MQConn = conn
		a.Publisher = rabbitmqClient.NewEventPublisher(conn, queue)
		opts.Publisher = a.Publisher

		if a.DB != nil {
			a.AuditWorker = worker.NewExchangeAuditWorker(conn, repository.NewExchangeEventRepository(a.DB), queue, a.Logger)
			if err := a.AuditWorker.Start(context.WithoutCancel(ctx)); err != nil {
				return fmt.Errorf("start exchange audit worker failed: %w", err)
			}
		} else {
			a.Logger.Warn("exchange audit worker disabled: memory storage has no audit table")
		}
	}

	a.Sessions = app.NewSessionService(store, modelClient, opts)

	a.Logger.Info("relay wired",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("credential_source", cfg.Credential.Source),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled),
	)
	return nil
}

func newCredentialProvider(cfg *config.Config) (*secret.CachedProvider, error) {
	switch cfg.Credential.Source {
	case config.CredentialStatic:
		return secret.NewCachedProvider(secret.StaticSource(cfg.Credential.APIKey)), nil
	default:
		source, err := secret.NewKeyVaultSource(cfg.KeyVaultURL(), cfg.Credential.SecretName)
		if err != nil {
			return nil, err
		}
		return secret.NewCachedProvider(source), nil
	}
}

func newModelClient(cfg *config.Config, credentials ai.CredentialProvider) app.ModelClient {
	chatCfg := ai.ChatConfig{
		ChatURL:     cfg.LLM.ChatURL,
		Model:       cfg.LLM.Model,
		AuthHeader:  cfg.LLM.AuthHeader,
		Temperature: cfg.LLM.Temperature,
		JSONMode:    cfg.LLM.JSONMode,
		Timeout:     cfg.LLMTimeout(),
	}
	if cfg.LLM.Provider == config.ProviderGemini {
		return ai.NewGeminiClient(chatCfg, credentials)
	}
	return ai.NewOpenAICompatibleClient(chatCfg, credentials)
}

func (a *App) Close() error {
	var errs []error
	if a.AuditWorker != nil {
		a.AuditWorker.Close()
	}
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher failed: %w", err))
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			errs = append(errs, fmt.Errorf("close database failed: %w", err))
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
