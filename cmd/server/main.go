package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/archive"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/config"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/ffmpeg"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/httpapi"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/imagecodec"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/metrics"
	"github.com/petrichar777/Video-Frame-Extractor/internal/infra/tracing"
	"github.com/petrichar777/Video-Frame-Extractor/internal/usecase"
	"github.com/petrichar777/Video-Frame-Extractor/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting video-frame-extractor http api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, cfg.ServiceName)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	fatalOnErr(os.MkdirAll(cfg.TempDir, 0o755), "create temp dir")

	decoder := ffmpeg.NewDecoder(cfg.FFmpegPath, cfg.FFprobePath, log)
	encoder := imagecodec.NewEncoder()
	extractor := usecase.NewExtractFramesUseCase(decoder, encoder, log, cfg.ExtractFrames())

	handler := httpapi.NewHandler(extractor, archive.NewZipper(), httpapi.HandlerConfig{
		VideoFormats: cfg.SupportedFormats,
		ImageFormats: encoder.SupportedFormats(),
		Defaults:     cfg.DefaultRequest(),
		PromptText:   cfg.DefaultPromptText,
	}, log)

	e := httpapi.NewServer(handler, httpapi.ServerConfig{
		MaxUploadMB:        cfg.MaxUploadMB,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ServiceName:        cfg.ServiceName,
	}, log)
	metricsSrv := metrics.NewServer(cfg.MetricsPort)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http api listening", zap.Int("port", cfg.HTTPPort))
		if err := e.Start(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics server starting", zap.Int("port", cfg.MetricsPort))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(e.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return
	}
	log.Info("video-frame-extractor http api stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
