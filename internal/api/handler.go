package api

import (
	"log/slog"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/planner"
	"github.com/shaiso/Tabula/internal/repo"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflowRepo *repo.WorkflowRepo
	runRepo      *repo.RunRepo
	datasetRepo  *repo.DatasetRepo
	scheduleRepo *repo.ScheduleRepo
	store        *dataset.Store
	registry     engine.Registry
	planner      *planner.Planner
	publisher    *mq.Publisher
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	RunRepo      *repo.RunRepo
	DatasetRepo  *repo.DatasetRepo
	ScheduleRepo *repo.ScheduleRepo

	// Store — файловое хранилище датасетов и результатов.
	Store *dataset.Store

	// Registry — реестр вычислителей для синхронного выполнения.
	Registry engine.Registry

	// Planner — AI-планировщик (nil, если не сконфигурирован).
	Planner *planner.Planner

	// Publisher — публикация run.pending (nil — polling-only режим).
	Publisher *mq.Publisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		workflowRepo: cfg.WorkflowRepo,
		runRepo:      cfg.RunRepo,
		datasetRepo:  cfg.DatasetRepo,
		scheduleRepo: cfg.ScheduleRepo,
		store:        cfg.Store,
		registry:     cfg.Registry,
		planner:      cfg.Planner,
		publisher:    cfg.Publisher,
		logger:       cfg.Logger,
	}
}
