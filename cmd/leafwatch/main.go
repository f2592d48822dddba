package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Application
	"github.com/dreschagin/leafwatch/internal/application/dto"
	"github.com/dreschagin/leafwatch/internal/application/port"
	"github.com/dreschagin/leafwatch/internal/application/state"
	"github.com/dreschagin/leafwatch/internal/application/usecase"

	// Domain
	"github.com/dreschagin/leafwatch/internal/domain/repository"
	"github.com/dreschagin/leafwatch/internal/domain/service"

	// Infrastructure
	rediscache "github.com/dreschagin/leafwatch/internal/infrastructure/cache/redis"
	"github.com/dreschagin/leafwatch/internal/infrastructure/camera"
	"github.com/dreschagin/leafwatch/internal/infrastructure/classifier"
	"github.com/dreschagin/leafwatch/internal/infrastructure/device"
	natsmsg "github.com/dreschagin/leafwatch/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/leafwatch/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/leafwatch/internal/infrastructure/observability/cloudwatch"
	"github.com/dreschagin/leafwatch/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/leafwatch/internal/infrastructure/persistence/postgres"
	"github.com/dreschagin/leafwatch/internal/infrastructure/sensor"
	"github.com/dreschagin/leafwatch/internal/infrastructure/storage/local"
	s3storage "github.com/dreschagin/leafwatch/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/dreschagin/leafwatch/internal/interfaces/http"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/handler"
	"github.com/dreschagin/leafwatch/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/leafwatch/pkg/config"
	"github.com/dreschagin/leafwatch/pkg/logger"

	_ "github.com/lib/pq"
)

// cloudWatchLogSink адаптирует буферизованный publisher к интерфейсу logger.LogPublisher.
type cloudWatchLogSink struct {
	publisher *cloudwatch.LogsPublisher
}

func (s *cloudWatchLogSink) Publish(timestamp time.Time, level, message string) {
	entry := port.LogEntry{
		Timestamp: timestamp,
		Level:     port.LogLevel(level),
		Message:   message,
	}
	// Publisher буферизует записи, сетевой вызов происходит на flush.
	_ = s.publisher.Publish(context.Background(), entry)
}

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting LeafWatch appliance")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Опциональная инфраструктура. Устройство должно работать автономно,
	// поэтому каждый внешний сервис включается отдельным флагом.

	var readingRepo repository.ReadingRepository
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Error("Failed to connect to database", err)
			os.Exit(1)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

		if err := db.Ping(); err != nil {
			log.Error("Failed to ping database", err)
			os.Exit(1)
		}
		log.Info("Database connected successfully")

		readingRepo = postgres.NewPostgresReadingRepository(db)
	} else {
		log.Warn("Database disabled, reading history endpoint will be unavailable")
	}

	var cache port.Cache
	if cfg.Redis.Enabled {
		redisCache, err := rediscache.NewRedisCache(cfg.Redis)
		if err != nil {
			log.Error("Failed to connect to Redis", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		cache = redisCache
		log.Info("Redis cache connected")
	}

	var events port.EventPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err := natsmsg.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, log)
		if err != nil {
			log.Error("Failed to connect to NATS", err)
			os.Exit(1)
		}
		defer natsPublisher.Close()
		events = natsPublisher
		log.Info("NATS publisher connected", "url", cfg.NATS.URL)
	}

	var archiver port.CaptureArchiver
	if cfg.Archive.Enabled {
		archive, err := s3storage.NewCaptureArchive(ctx, s3storage.Config{
			Bucket:          cfg.Archive.Bucket,
			Region:          cfg.Archive.Region,
			Endpoint:        cfg.Archive.Endpoint,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			UsePathStyle:    cfg.Archive.UsePathStyle,
			KeyPrefix:       cfg.Archive.KeyPrefix,
		})
		if err != nil {
			log.Error("Failed to initialize capture archive", err)
			os.Exit(1)
		}
		archiver = archive
		log.Info("Capture archive enabled", "bucket", cfg.Archive.Bucket)
	}

	var captureIndex port.CaptureIndex
	if cfg.Dynamo.Enabled {
		index, err := dynamodb.NewCaptureIndexRepository(ctx, dynamodb.Config{
			TableName:       cfg.Dynamo.Table,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
		})
		if err != nil {
			log.Error("Failed to initialize capture index", err)
			os.Exit(1)
		}
		captureIndex = index
		log.Info("Capture index enabled", "table", cfg.Dynamo.Table)
	}

	hostname, _ := os.Hostname()

	var telemetry port.MetricsPublisher
	var metricsPublisher *cloudwatch.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		metricsPublisher, err = cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.MetricsNamespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			AccessKeyID:       cfg.CloudWatch.AccessKeyID,
			SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{"DeviceID": hostname},
			BufferSize:        cfg.CloudWatch.MetricsBufferSize,
			FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch metrics", err)
			os.Exit(1)
		}
		telemetry = metricsPublisher
		log.Info("CloudWatch telemetry enabled", "namespace", cfg.CloudWatch.MetricsNamespace)
	}

	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err = cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			BufferSize:      cfg.CloudWatch.LogsBufferSize,
			FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
			AutoCreate:      true,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch logs", err)
			os.Exit(1)
		}
		log.SetLogPublisher(&cloudWatchLogSink{publisher: logsPublisher})
		log.Info("CloudWatch log shipping enabled", "group", cfg.CloudWatch.LogGroupName)
	}

	// 4. Обязательная инфраструктура устройства

	frames := camera.NewMJPEGSource(cfg.Camera, log)
	leafClassifier := classifier.NewHTTPClassifier(cfg.Classifier, log)
	dhtSensor := sensor.NewIIOSensor(cfg.Sensor, log)
	hostMonitor := device.NewGopsutilHostMonitor("/")

	imageStore, err := local.NewImageStore(cfg.Capture, log)
	if err != nil {
		log.Error("Failed to initialize image store", err)
		os.Exit(1)
	}

	hub := wsInfra.NewHub(log)

	// 5. Доменные сервисы и use cases

	severityPolicy := service.NewSeverityPolicy()
	evaluator := service.NewEnvironmentEvaluator()

	systemState := state.New(cfg.Capture.AlertThreshold, cfg.Capture.DailyEnabled, cfg.Capture.DailyHour)

	statusUC := usecase.NewGetSystemStatusUseCase(systemState, evaluator, hostMonitor, hub, log)
	hub.SetStatusProvider(func() *dto.StatusDTO {
		return statusUC.Execute(context.Background())
	})

	captureUC := usecase.NewRunCaptureUseCase(
		frames,
		leafClassifier,
		imageStore,
		severityPolicy,
		systemState,
		hub,
		events,
		archiver,
		captureIndex,
		telemetry,
		statusUC,
		log,
	)

	listCapturesUC := usecase.NewListCapturesUseCase(imageStore, captureIndex, log)
	settingsUC := usecase.NewUpdateSettingsUseCase(systemState, hub, statusUC, log)
	schedulerUC := usecase.NewDailySchedulerUseCase(captureUC, systemState, hub, cfg.Capture.TickInterval, log)
	historyUC := usecase.NewGetReadingHistoryUseCase(readingRepo, evaluator, cache, log)
	recordReadingUC := usecase.NewRecordReadingUseCase(
		dhtSensor,
		readingRepo,
		systemState,
		evaluator,
		hub,
		cache,
		telemetry,
		cfg.Sensor.PollInterval,
		log,
	)

	// 6. HTTP handlers и router

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	router := httpInterface.NewRouter(
		handler.NewCaptureAPIHandler(captureUC, listCapturesUC, cfg.Capture.MaxUploadBytes, cfg.Capture.ListLimit, log),
		handler.NewStatusAPIHandler(statusUC, historyUC, 24*time.Hour, log),
		handler.NewSettingsAPIHandler(settingsUC, statusUC, schedulerUC, log),
		handler.NewGalleryHandler(imageStore, log),
		handler.NewStreamHandler(frames, log),
		handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log),
		cfg.Security,
		cfg.Capture.RateLimitPerMin,
		log,
	)

	// 7. Запускаем фоновые процессы

	go hub.Run()
	log.Info("WebSocket hub started")

	go frames.Run(ctx)
	log.Info("Camera stream reader started", "url", cfg.Camera.StreamURL)

	go recordReadingUC.Run(ctx)
	log.Info("Sensor polling started", "interval", cfg.Sensor.PollInterval.String())

	go schedulerUC.Run(ctx)

	// 8. Настраиваем HTTP сервер. WriteTimeout нулевой: MJPEG поток и
	// WebSocket соединения живут дольше любого разумного таймаута.

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 9. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	// Останавливаем фоновые процессы
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	if err := frames.Close(); err != nil {
		log.Warn("Camera stream close error", "error", err.Error())
	}

	// Сбрасываем буферы наблюдаемости перед выходом
	if metricsPublisher != nil {
		if err := metricsPublisher.Close(shutdownCtx); err != nil {
			log.Warn("Failed to flush CloudWatch metrics", "error", err.Error())
		}
	}
	if logsPublisher != nil {
		if err := logsPublisher.Close(shutdownCtx); err != nil {
			log.Warn("Failed to flush CloudWatch logs", "error", err.Error())
		}
	}

	log.Info("Appliance stopped gracefully")
}
