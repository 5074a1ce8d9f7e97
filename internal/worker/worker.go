package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/nodes"
	"github.com/shaiso/Tabula/internal/repo"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 20
	defaultPrefetch     = 2
)

// Worker выполняет runs: графы workflow над загруженными датасетами.
//
// Worker — stateless компонент системы, который:
//   - Получает события о новых runs из RabbitMQ (event-driven)
//   - Периодически проверяет pending runs в БД (polling fallback)
//   - Загружает датасеты, выполняет граф через engine.Scheduler
//   - Экспортирует выходные таблицы в файлы результатов
//   - Следит за запросом отмены и кооперативно останавливает run
//
// Workers масштабируются горизонтально — runs разбираются через
// условный UPDATE статуса, дважды один run не выполняется.
type Worker struct {
	// Repositories
	runRepo      *repo.RunRepo
	workflowRepo *repo.WorkflowRepo
	datasetRepo  *repo.DatasetRepo

	// Файлы датасетов и результатов
	store *dataset.Store

	// MQ
	conn *mq.Connection

	// Движок выполнения графов
	scheduler *engine.Scheduler

	// Consumer
	consumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	// Repositories
	RunRepo      *repo.RunRepo
	WorkflowRepo *repo.WorkflowRepo
	DatasetRepo  *repo.DatasetRepo

	// Store — файловое хранилище датасетов и результатов.
	Store *dataset.Store

	// Conn — соединение с RabbitMQ (nil — polling-only режим).
	Conn *mq.Connection

	// Registry — реестр вычислителей (опционально; если nil —
	// используется nodes.DefaultRegistry()).
	Registry engine.Registry

	// Polling configuration
	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество runs за один poll (default: 20)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = nodes.DefaultRegistry()
	}

	return &Worker{
		runRepo:      cfg.RunRepo,
		workflowRepo: cfg.WorkflowRepo,
		datasetRepo:  cfg.DatasetRepo,
		store:        cfg.Store,
		conn:         cfg.Conn,
		scheduler:    engine.NewScheduler(registry, logger),
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Worker.
//
// Запускает:
//   - Consumer для runs.pending (если есть соединение с MQ)
//   - Polling горутину для fallback
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsPending),
			Handler:  w.handleRunPending,
			Prefetch: defaultPrefetch,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("run consumer error", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// handleRunPending — обработчик сообщения о новом run.
func (w *Worker) handleRunPending(ctx context.Context, msg *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&msg.Message)
	if err != nil {
		w.logger.Error("invalid run.pending payload", "error", err)
		// Некорректный payload ретраить бессмысленно
		return msg.Nack(false)
	}

	return w.processRun(ctx, payload.RunID)
}

// pollLoop — цикл polling для fallback.
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs, созданные
	// пока worker был выключен)
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	runs, err := w.runRepo.ListPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list pending runs", "error", err)
		return
	}

	if len(runs) == 0 {
		return
	}

	w.logger.Debug("poll found pending runs", "count", len(runs))

	for i := range runs {
		if err := w.processRun(ctx, runs[i].ID); err != nil {
			w.logger.Error("failed to process run from poll",
				"run_id", runs[i].ID,
				"error", err,
			)
		}
	}
}
