package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/entity"
	"github.com/petrichar777/Video-Frame-Extractor/internal/domain/port"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FrameExtractor is the part of ExtractFramesUseCase the job worker needs.
type FrameExtractor interface {
	Execute(ctx context.Context, data []byte, fileName string, req entity.SamplingRequest) *entity.ExtractionResult
}

// RetryableError asks the consumer to requeue the job. Attempt is the attempt
// that just failed and drives the backoff.
type RetryableError struct {
	Attempt     int
	MaxAttempts int
	Reason      string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable failure (attempt %d/%d): %s", e.Attempt, e.MaxAttempts, e.Reason)
}

func (e *RetryableError) RetryAttempt() int {
	return e.Attempt
}

type ProcessJobUseCase struct {
	repo      port.JobRepository
	storage   port.VideoStorage
	extractor FrameExtractor
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	maxRetry  int
}

type ProcessJobConfig struct {
	MaxRetries int
}

func NewProcessJobUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor FrameExtractor,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessJobConfig,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		maxRetry:  cfg.MaxRetries,
	}
}

// Execute handles one queued extraction job. A nil return acks the message,
// including permanent failures that were routed to the DLQ; a non-nil return
// asks the consumer to requeue it.
func (uc *ProcessJobUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessJobUseCase.Execute")
	defer span.End()

	var msg entity.ExtractionJobMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewJob(msg.UserID, msg.VideoKey, msg.FileName, msg.FileSize, uc.maxRetry)
		job.ID = msg.JobID
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded", log)
	}

	req, err := msg.Request()
	if err != nil {
		log.Warn("invalid extraction options", zap.Error(err))
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, err.Error(), log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	return uc.run(ctx, job, msg, rawMsg, req, log)
}

func (uc *ProcessJobUseCase) run(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionJobMessage,
	rawMsg []byte,
	req entity.SamplingRequest,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	fetchStart := time.Now()
	fetchCtx, spanFetch := tracer.Start(ctx, "fetch_video")
	data, err := uc.storage.FetchVideo(fetchCtx, msg.VideoKey)
	spanFetch.End()
	if err != nil {
		log.Error("failed to fetch video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "fetch_video: "+err.Error(), log)
	}
	metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())

	fileName := msg.FileName
	if fileName == "" {
		fileName = msg.VideoKey
	}

	result := uc.extractor.Execute(ctx, data, fileName, req)
	if !result.Succeeded {
		if entity.IsValidationError(result.Err) {
			return uc.handlePermanentFailure(ctx, job, msg, rawMsg, result.Message, log)
		}
		if errors.Is(result.Err, context.Canceled) && ctx.Err() != nil {
			// Worker shutdown: requeue without marking the job failed.
			return fmt.Errorf("extraction interrupted: %w", ctx.Err())
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, result.Message, log)
	}

	job.MarkCompleted(result)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, result, log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()

	log.Info("job completed successfully",
		zap.Int("frame_count", result.TotalExtracted),
		zap.Int64("duration_ms", job.VideoDurationMs),
		zap.Int64("processing_ms", result.ProcessingTimeMs),
	)
	return nil
}

func (uc *ProcessJobUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionJobMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, nil, log)

	return &RetryableError{Attempt: job.Attempt, MaxAttempts: job.MaxAttempts, Reason: errMsg}
}

func (uc *ProcessJobUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionJobMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if err := uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg); err != nil {
		log.Error("failed to publish to DLQ", zap.Error(err))
	}

	uc.publishStatus(ctx, job, nil, log)
	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		notice := port.FailureNotice{
			UserEmail: msg.UserEmail,
			JobID:     job.ID.String(),
			VideoKey:  msg.VideoKey,
			FileName:  msg.FileName,
			Reason:    errMsg,
			Attempts:  job.Attempt,
		}
		if err := uc.notifier.NotifyFailure(ctx, notice); err != nil {
			log.Warn("failed to send failure notification", zap.Error(err))
		}
	}

	return nil
}

func (uc *ProcessJobUseCase) publishStatus(ctx context.Context, job *entity.Job, result *entity.ExtractionResult, log *zap.Logger) {
	statusMsg := entity.ExtractionStatusMessage{
		JobID:            job.ID,
		UserID:           job.UserID,
		Status:           job.Status,
		VideoKey:         job.VideoKey,
		FrameCount:       job.FrameCount,
		DurationMs:       job.VideoDurationMs,
		ProcessingTimeMs: job.ProcessingTimeMs,
		ErrorMessage:     job.ErrorMessage,
		Attempt:          job.Attempt,
		MaxAttempts:      job.MaxAttempts,
		Result:           result,
	}
	if err := uc.publisher.PublishStatus(ctx, statusMsg); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
