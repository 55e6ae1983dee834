package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
	"github.com/decdec420/jessica-your-companion/internal/application/turn"
	"github.com/decdec420/jessica-your-companion/internal/config"
	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/image"
	"github.com/decdec420/jessica-your-companion/internal/domain/llm"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/search"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/auth"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/database"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/imagegen"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/llmprovider"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/lock"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/persona"
	searchclient "github.com/decdec420/jessica-your-companion/internal/infrastructure/search"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/storage"
	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver/handlers"
)

func newDatabaseConfig(cfg *config.Config) database.Config {
	dsn := cfg.DatabaseURL
	if cfg.DBDriver == database.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	return database.Config{
		Driver:          cfg.DBDriver,
		DSN:             dsn,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

// newLocker uses Redis when configured so replicas share the memory dedup
// lock; a single instance falls back to an in-process lock.
func newLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (memory.Locker, func(), error) {
	if cfg.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, using in-process memory lock")
		return lock.NewLocalLocker(), func() {}, nil
	}
	locker, err := lock.NewRedisLocker(ctx, cfg.RedisURL, cfg.MemoryLockTTL, log)
	if err != nil {
		return nil, nil, err
	}
	return locker, func() {
		if err := locker.Close(); err != nil {
			log.Error().Err(err).Msg("close redis locker")
		}
	}, nil
}

func newRanker(cfg *config.Config) *memory.Ranker {
	return memory.NewRanker(cfg.MemoryContextLimit, cfg.ActiveProjectKeywords)
}

func newTaskService(repo task.Repository, cfg *config.Config, log zerolog.Logger) *task.Service {
	return task.NewService(repo, cfg.ProactiveTaskLimit, cfg.UpcomingWindow, log)
}

func newPersona(cfg *config.Config) (persona.Persona, error) {
	return persona.Load(cfg.PersonaFile)
}

// newSearcher returns nil when no search key is configured, which keeps
// web_search out of the declared tools.
func newSearcher(cfg *config.Config, log zerolog.Logger) (search.Searcher, error) {
	if !cfg.SearchEnabled() {
		return nil, nil
	}
	client, err := searchclient.NewSerperClient(searchclient.Options{
		Endpoint:  cfg.SearchAPIURL,
		APIKey:    cfg.SearchAPIKey,
		Num:       cfg.SearchResultSize,
		Timeout:   cfg.SearchTimeout,
		CacheSize: cfg.SearchCacheSize,
		CacheTTL:  cfg.SearchCacheTTL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init search client: %w", err)
	}
	return client, nil
}

// newImageService returns nil when image generation is not configured.
func newImageService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*image.Service, error) {
	if !cfg.ImageEnabled() {
		return nil, nil
	}
	store, err := storage.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init media storage: %w", err)
	}
	generator := imagegen.NewClient(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageModel, cfg.ImageSize, cfg.ImageTimeout)
	return image.NewService(generator, store, log), nil
}

func newToolDependencies(
	cfg *config.Config,
	memories *memory.Service,
	tasks *task.Service,
	conversations *conversation.Service,
	searcher search.Searcher,
	images *image.Service,
) tool.Dependencies {
	return tool.Dependencies{
		Memories:      memories,
		Tasks:         tasks,
		Conversations: conversations,
		Searcher:      searcher,
		SearchLimit:   cfg.SearchResultSize,
		Images:        images,
	}
}

func newModelProvider(cfg *config.Config) llm.Provider {
	return llmprovider.NewClient(cfg.ModelAPIURL, cfg.ModelAPIKey, cfg.ModelTimeout)
}

func newAssembler(cfg *config.Config, conversations *conversation.Service, memories *memory.Service, tasks *task.Service, p persona.Persona, log zerolog.Logger) *turn.Assembler {
	return turn.NewAssembler(conversations, memories, tasks, p, cfg.HistoryLimit, cfg.ActiveProject, log)
}

func newOrchestrator(
	cfg *config.Config,
	validator *auth.Validator,
	assembler *turn.Assembler,
	provider llm.Provider,
	dispatcher *tool.Dispatcher,
	conversations *conversation.Service,
	p persona.Persona,
	log zerolog.Logger,
) *turn.Orchestrator {
	return turn.NewOrchestrator(validator, assembler, provider, dispatcher, conversations, turn.Options{
		Model:           cfg.ModelName,
		Temperature:     cfg.ModelTemperature,
		ProjectContext:  cfg.ActiveProject,
		FillerReply:     p.FillerReply,
		PersistMessages: cfg.PersistMessages,
	}, log)
}

func newHandlerProvider(orchestrator *turn.Orchestrator, db *gorm.DB, validator *auth.Validator, log zerolog.Logger) *handlers.Provider {
	return handlers.NewProvider(orchestrator, db, validator, log)
}
