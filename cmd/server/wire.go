//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/decdec420/jessica-your-companion/internal/application/tool"
	"github.com/decdec420/jessica-your-companion/internal/config"
	"github.com/decdec420/jessica-your-companion/internal/domain/conversation"
	"github.com/decdec420/jessica-your-companion/internal/domain/memory"
	"github.com/decdec420/jessica-your-companion/internal/domain/task"
	"github.com/decdec420/jessica-your-companion/internal/infrastructure/logger"
	conversationrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/conversation"
	memoryrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/memory"
	taskrepo "github.com/decdec420/jessica-your-companion/internal/infrastructure/repository/task"
	"github.com/decdec420/jessica-your-companion/internal/interfaces/httpserver"
)

var repositorySet = wire.NewSet(
	conversationrepo.NewGormRepository,
	wire.Bind(new(conversation.Repository), new(*conversationrepo.GormRepository)),
	memoryrepo.NewGormRepository,
	wire.Bind(new(memory.Repository), new(*memoryrepo.GormRepository)),
	taskrepo.NewGormRepository,
	wire.Bind(new(task.Repository), new(*taskrepo.GormRepository)),
)

var serviceSet = wire.NewSet(
	conversation.NewService,
	newLocker,
	newRanker,
	memory.NewService,
	newTaskService,
	newPersona,
	newSearcher,
	newImageService,
)

var turnSet = wire.NewSet(
	newToolDependencies,
	tool.NewDefaultRegistry,
	tool.NewDispatcher,
	newModelProvider,
	newAssembler,
	newOrchestrator,
)

// BuildApplication assembles the companion service with Wire.
func BuildApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		repositorySet,
		serviceSet,
		turnSet,
		newHandlerProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil, nil
}
