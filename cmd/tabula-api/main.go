// Tabula API — HTTP-сервис для работы с табличными workflow.
//
// API:
//   - Принимает загрузку датасетов (xlsx/csv)
//   - Хранит workflows, их версии и расписания
//   - Создаёт runs и публикует их в RabbitMQ для worker'ов
//   - Выполняет ad-hoc графы синхронно (/execute)
//   - Строит графы из текста через AI-планировщик (/ai/plan)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tabula/internal/api"
	"github.com/shaiso/Tabula/internal/dataset"
	"github.com/shaiso/Tabula/internal/mq"
	"github.com/shaiso/Tabula/internal/nodes"
	"github.com/shaiso/Tabula/internal/planner"
	"github.com/shaiso/Tabula/internal/repo"
	"github.com/shaiso/Tabula/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting tabula-api")

	// Подключаемся к базе данных
	pool, err := repo.NewPool(context.Background())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	// Создаём репозитории
	workflowRepo := repo.NewWorkflowRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	datasetRepo := repo.NewDatasetRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// Файловое хранилище датасетов и результатов
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	store, err := dataset.NewStore(dataDir)
	if err != nil {
		logger.Error("failed to init data store", "error", err)
		os.Exit(1)
	}

	// RabbitMQ — опционально: без брокера runs подберёт polling worker'а
	var publisher *mq.Publisher
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, runs will be picked up by polling", "error", err)
	} else {
		defer mqConn.Close()
		if err := mq.SetupTopology(context.Background(), mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		publisher = mq.NewPublisher(mqConn, logger)
		logger.Info("RabbitMQ connected")
	}

	// AI-планировщик — опционален (nil без OPENAI_API_KEY)
	aiPlanner := planner.NewFromEnv()
	if aiPlanner == nil {
		logger.Info("ai planner disabled, OPENAI_API_KEY not set")
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		WorkflowRepo: workflowRepo,
		RunRepo:      runRepo,
		DatasetRepo:  datasetRepo,
		ScheduleRepo: scheduleRepo,
		Store:        store,
		Registry:     nodes.DefaultRegistry(),
		Planner:      aiPlanner,
		Publisher:    publisher,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
