package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
	"github.com/decdec420/jessica-your-companion/internal/config"
	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/logger"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/observability"
	conversationrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/conversation"
	memoryrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/memory"
	taskrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/task"
	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver"
)

// @title Companion API
// @version 1.0
// @description Chat turn orchestration for a persistent AI companion
// @BasePath /
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := newGormDB(ctx, newDatabaseConfig(cfg), log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	authValidator, err := newAuthValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize memory lock")
	}
	defer closeLocker()

	p, err := newPersona(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load persona")
	}

	conversationService := conversation.NewService(conversationrepo.NewGormRepository(db))
	memoryService := memory.NewService(memoryrepo.NewGormRepository(db), locker, newRanker(cfg), log)
	taskService := newTaskService(taskrepo.NewGormRepository(db), cfg, log)

	searcher, err := newSearcher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize web search")
	}
	imageService, err := newImageService(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize image generation")
	}

	registry, err := tool.NewDefaultRegistry(newToolDependencies(cfg, memoryService, taskService, conversationService, searcher, imageService))
	if err != nil {
		log.Fatal().Err(err).Msg("register tools")
	}
	log.Info().Strs("tools", registry.Names()).Msg("tools registered")
	dispatcher := tool.NewDispatcher(registry, log)

	assembler := newAssembler(cfg, conversationService, memoryService, taskService, p, log)
	orchestrator := newOrchestrator(cfg, authValidator, assembler, newModelProvider(cfg), dispatcher, conversationService, p, log)

	httpServer := httpserver.New(cfg, log, newHandlerProvider(orchestrator, db, authValidator, log))
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
