// Tabula Worker — выполняет runs.
//
// Worker:
//   - Получает run.pending из RabbitMQ (плюс polling-фоллбек по БД)
//   - Загружает датасеты source-узлов, выполняет граф
//   - Выгружает таблицы output-узлов в файлы результатов
//   - Записывает статусы узлов и итог в run
//
// Workers масштабируются горизонтально: run забирается условным
// UPDATE PENDING→RUNNING, двойное выполнение исключено.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/repo"
	"github.com/shaiso/Tabula/internal/telemetry"
	"github.com/shaiso/Tabula/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tabula-worker")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	runRepo := repo.NewRunRepo(pool)
	workflowRepo := repo.NewWorkflowRepo(pool)
	datasetRepo := repo.NewDatasetRepo(pool)

	// Файловое хранилище — общий каталог с API
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	store, err := dataset.NewStore(dataDir)
	if err != nil {
		logger.Error("failed to init data store", "error", err)
		os.Exit(1)
	}

	// RabbitMQ
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
	}

	// Создаём worker
	w := worker.New(worker.Config{
		RunRepo:      runRepo,
		WorkflowRepo: workflowRepo,
		DatasetRepo:  datasetRepo,
		Store:        store,
		Conn:         mqConn,
		Logger:       logger,
	})

	// Запускаем worker
	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("WORKER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker
	w.Stop()
	logger.Info("tabula-worker stopped")
}
