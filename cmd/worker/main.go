package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/config"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/email"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/ffmpeg"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/imagecodec"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/metrics"
	miniostorage "github.com/petrichar777/Video-Frame-Extractor/internal/infra/minio"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/postgres"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/rabbitmq"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/tracing"
	"github.com/petrichar777/Video-Frame-Extractor/internal/usecase"
	"github.com/petrichar777/Video-Frame-Extractor/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting video-frame-extractor worker")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, cfg.ServiceName)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		UploadBucket:   cfg.MinIOUploadBucket,
		MaxObjectBytes: cfg.MaxUploadBytes(),
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBucket(ctx), "ensure minio bucket")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	decoder := ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Use cases
	extractor := usecase.NewExtractFramesUseCase(decoder, imagecodec.NewEncoder(), log, cfg.ExtractFrames())
	uc := usecase.NewProcessJobUseCase(
		repo, storage, extractor,
		statusPub, dlqPub, notifier,
		log,
		usecase.ProcessJobConfig{MaxRetries: cfg.MaxRetries},
	)

	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQJobQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	log.Info("worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("video-frame-extractor worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
