package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/domain"
	"github.com/shaiso/Tabula/internal/engine"
	"github.com/shaiso/Tabula/internal/repo"
	"github.com/shaiso/Tabula/internal/telemetry"
)

// cancelPollInterval — как часто worker проверяет запрос отмены run.
const cancelPollInterval = 2 * time.Second

// processRun выполняет один run от начала до конца.
//
// Возвращает error только при инфраструктурных сбоях, требующих
// retry (недоступна БД). Отказы узлов и структурные ошибки графа
// записываются в сам run и ошибкой обработки не считаются.
func (w *Worker) processRun(ctx context.Context, runID uuid.UUID) error {
	logger := telemetry.WithRunID(w.logger, runID.String())

	run, err := w.runRepo.GetByID(ctx, runID)
	if errors.Is(err, repo.ErrNotFound) {
		logger.Warn("run not found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	if run.Status.IsTerminal() {
		logger.Debug("run already finished", "status", run.Status)
		return nil
	}

	startedAt := time.Now()
	err = w.runRepo.MarkRunning(ctx, runID, startedAt)
	if errors.Is(err, repo.ErrInvalidState) {
		// Run подхвачен другим воркером или отменён
		logger.Debug("run not in PENDING state, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	telemetry.RunsStarted.Inc()
	logger.Info("run started", "workflow_id", run.WorkflowID, "version", run.Version)

	run.StartedAt = &startedAt
	w.executeRun(ctx, run, logger)

	finishedAt := time.Now()
	run.FinishedAt = &finishedAt

	if err := w.runRepo.MarkFinished(ctx, run); err != nil {
		return fmt.Errorf("mark run finished: %w", err)
	}

	telemetry.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	telemetry.RunDuration.Observe(finishedAt.Sub(startedAt).Seconds())
	logger.Info("run finished", "status", run.Status, "duration", finishedAt.Sub(startedAt))
	return nil
}

// executeRun выполняет граф и заполняет поля run результатами.
// Все ошибки терминальны для run и записываются в run.Status/Error.
func (w *Worker) executeRun(ctx context.Context, run *domain.Run, logger *slog.Logger) {
	version, err := w.workflowRepo.GetVersion(ctx, run.WorkflowID, run.Version)
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = fmt.Sprintf("load workflow version: %v", err)
		return
	}
	graph := &version.Graph

	bindings := w.resolveBindings(ctx, run, graph, logger)

	// Кооперативная отмена: фоновая горутина опрашивает статус run
	// и отменяет контекст графа при CANCELLED
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.watchCancellation(runCtx, run.ID, cancel, logger)

	result, err := w.scheduler.Run(runCtx, graph, bindings)
	if err != nil {
		// Структурная ошибка: ни один узел не выполнялся
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		logger.Warn("graph validation failed", "error", err)
		return
	}

	run.NodeResults = collectNodeResults(result)
	run.Outputs = w.exportOutputs(run, result, logger)

	for _, ne := range result.Errors {
		telemetry.NodeFailures.WithLabelValues(string(ne.Reason)).Inc()
	}

	switch {
	case result.Cancelled:
		run.Status = domain.RunStatusCancelled
	case result.Failed():
		run.Status = domain.RunStatusFailed
		run.Error = summarizeErrors(result.Errors)
	default:
		run.Status = domain.RunStatusSucceeded
	}
}

// resolveBindings загружает датасеты для source-узлов графа.
//
// run.DatasetMap переназначает dataset_id из параметров узла.
// Ошибка загрузки одного датасета не прерывает run: source остаётся
// без привязки, его ветка упадёт с MissingBinding, остальные
// продолжат выполняться.
func (w *Worker) resolveBindings(ctx context.Context, run *domain.Run, graph *domain.Graph, logger *slog.Logger) engine.Bindings {
	bindings := engine.Bindings{}

	for _, node := range graph.SourceNodes() {
		params, ok := node.Params.(*domain.SourceParams)
		if !ok {
			continue
		}

		datasetID := params.DatasetID
		if mapped, ok := run.DatasetMap[datasetID]; ok {
			datasetID = mapped
		}

		id, err := uuid.Parse(datasetID)
		if err != nil {
			logger.Warn("invalid dataset id for source node",
				"node_id", node.ID, "dataset_id", datasetID)
			continue
		}

		d, err := w.datasetRepo.GetByID(ctx, id)
		if err != nil {
			logger.Warn("dataset not found for source node",
				"node_id", node.ID, "dataset_id", datasetID, "error", err)
			continue
		}

		t, err := w.store.Open(d, params.Sheet, dataset.LoadOptions{})
		if err != nil {
			logger.Warn("failed to load dataset for source node",
				"node_id", node.ID, "dataset_id", datasetID, "error", err)
			continue
		}

		bindings[node.ID] = t
	}

	return bindings
}

// watchCancellation опрашивает статус run и отменяет контекст,
// если пользователь запросил отмену.
func (w *Worker) watchCancellation(ctx context.Context, runID uuid.UUID, cancel context.CancelFunc, logger *slog.Logger) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cancelled, err := w.runRepo.IsCancelled(ctx, runID)
			if err != nil {
				logger.Warn("failed to check cancellation", "error", err)
				continue
			}
			if cancelled {
				logger.Info("cancellation requested")
				cancel()
				return
			}
		}
	}
}

// exportOutputs выгружает таблицы output-узлов в файлы результатов.
// Возвращает карту имя назначения → имя файла.
func (w *Worker) exportOutputs(run *domain.Run, result *engine.Result, logger *slog.Logger) map[string]string {
	if len(result.Outputs) == 0 {
		return nil
	}

	outputs := make(map[string]string, len(result.Outputs))
	shortID := strings.Split(run.ID.String(), "-")[0]

	for name, t := range result.Outputs {
		filename := fmt.Sprintf("%s_%s.xlsx", name, shortID)
		saved, err := w.store.ExportResult(filename, t)
		if err != nil {
			logger.Error("failed to export output", "output", name, "error", err)
			continue
		}
		outputs[name] = saved
	}
	return outputs
}

// collectNodeResults собирает итоги по узлам для сохранения в run.
func collectNodeResults(result *engine.Result) map[string]domain.NodeResult {
	results := make(map[string]domain.NodeResult, len(result.NodeStatus))

	for nodeID, status := range result.NodeStatus {
		nr := domain.NodeResult{Status: status}
		if t, ok := result.Context.Result(nodeID); ok {
			nr.Rows = t.NumRows()
			nr.Columns = t.ColumnNames()
		}
		results[nodeID] = nr
	}

	for _, ne := range result.Errors {
		nr := results[ne.NodeID]
		nr.Reason = string(ne.Reason)
		nr.Error = ne.Message
		results[ne.NodeID] = nr
	}

	return results
}

// summarizeErrors собирает человекочитаемую сводку отказов.
func summarizeErrors(errs []engine.NodeError) string {
	parts := make([]string, len(errs))
	for i := range errs {
		parts[i] = errs[i].Error()
	}
	return strings.Join(parts, "; ")
}
