package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/repo"
)

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	scheduleRepo *repo.ScheduleRepo
	runRepo      *repo.RunRepo
	workflowRepo *repo.WorkflowRepo
	publisher    *mq.Publisher
	logger       *slog.Logger
	batchSize    int
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo *repo.ScheduleRepo
	RunRepo      *repo.RunRepo
	WorkflowRepo *repo.WorkflowRepo
	Publisher    *mq.Publisher
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		scheduleRepo: cfg.ScheduleRepo,
		runRepo:      cfg.RunRepo,
		workflowRepo: cfg.WorkflowRepo,
		publisher:    cfg.Publisher,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule создаёт run
// 3. Обновляет next_due_at
// 4. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.scheduleRepo.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}

	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			// Продолжаем обработку остальных
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)

	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	// Workflow должен существовать и иметь хотя бы одну версию
	version, err := s.workflowRepo.GetLatestVersion(ctx, sched.WorkflowID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("workflow not found for schedule, skipping",
				"schedule_id", sched.ID,
				"workflow_id", sched.WorkflowID,
			)
			return false, nil
		}
		return false, fmt.Errorf("get latest workflow version: %w", err)
	}

	// Idempotency key "{schedule_id}_{next_due_at_unix}": для одного
	// schedule и конкретного времени создаётся только один run
	idempKey := fmt.Sprintf("%s_%d", sched.ID, sched.NextDueAt.Unix())

	existingRun, err := s.runRepo.GetByIdempotencyKey(ctx, sched.WorkflowID, idempKey)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return false, fmt.Errorf("check idempotency: %w", err)
	}

	var runCreated bool
	var runID uuid.UUID

	if existingRun != nil {
		s.logger.Debug("run already exists (idempotency)",
			"schedule_id", sched.ID,
			"run_id", existingRun.ID,
			"idempotency_key", idempKey,
		)
		runID = existingRun.ID
		runCreated = false
	} else {
		run := &domain.Run{
			ID:             uuid.New(),
			WorkflowID:     sched.WorkflowID,
			Version:        version.Version,
			Status:         domain.RunStatusPending,
			DatasetMap:     sched.DatasetMap,
			IdempotencyKey: idempKey,
			CreatedAt:      now,
		}

		if err := s.runRepo.Create(ctx, run); err != nil {
			return false, fmt.Errorf("create run: %w", err)
		}

		s.logger.Info("created run from schedule",
			"run_id", run.ID,
			"schedule_id", sched.ID,
			"schedule_name", sched.Name,
			"workflow_id", sched.WorkflowID,
			"version", version.Version,
		)

		runID = run.ID
		runCreated = true
	}

	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		s.logger.Error("failed to calculate next due, leaving schedule as is",
			"schedule_id", sched.ID,
			"error", err,
		)
		return runCreated, nil
	}

	sched.RecordRun(runID, nextDue)
	if err := s.scheduleRepo.Update(ctx, sched); err != nil {
		return runCreated, fmt.Errorf("update schedule: %w", err)
	}

	// Публикуем событие (если publisher настроен и run создан).
	// Неудача не фатальна: worker заберёт run через polling.
	if s.publisher != nil && runCreated {
		if err := s.publisher.PublishRunPending(ctx, runID); err != nil {
			s.logger.Warn("failed to publish run.pending",
				"run_id", runID,
				"error", err,
			)
		}
	}

	return runCreated, nil
}
