package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"medscribe/internal/config"
	"medscribe/internal/enhance"
	"medscribe/internal/httpapi"
	"medscribe/internal/observability"
	"medscribe/internal/synthesis"
	"medscribe/internal/transcription"
	"medscribe/internal/upstream/deepgram"
	"medscribe/internal/upstream/openai"
)

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	metrics := observability.NewMetrics()

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	vendorHTTPClient := &http.Client{Timeout: cfg.RequestTimeout, Transport: transport}

	speechClient := deepgram.New(cfg.DeepgramBaseURL, cfg.DeepgramAPIKey, vendorHTTPClient,
		deepgram.WithObserver(metrics.VendorObserver("deepgram")))
	enhanceClient := openai.New(cfg.EnhanceBaseURL, cfg.EnhanceAPIKey, vendorHTTPClient,
		openai.WithObserver(metrics.VendorObserver("enhancement")))

	transcriptionService := transcription.New(speechClient, cfg.SpeechModel, cfg.SpeechLanguage, cfg.MaxUploadBytes, cfg.SpeechTimeout)
	enhanceService := enhance.New(enhanceClient, cfg.EnhanceModel, cfg.MaxEnhanceChars, cfg.EnhanceTimeout)
	synthesisService := synthesis.New(speechClient, cfg.SynthesisModel, cfg.SynthesisEncoding, cfg.SynthesisSampleRate, cfg.MaxSynthesisChars, cfg.SynthesisTimeout)

	handler := httpapi.NewServer(cfg, logger, httpapi.Dependencies{
		Transcription:  transcriptionService,
		Enhancement:    enhanceService,
		Synthesis:      synthesisService,
		Upstream:       enhanceClient,
		Metrics:        metrics,
		MetricsHandler: metrics.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       35 * time.Second,
		WriteTimeout:      40 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.ListenAddr, "synthesis_enabled", cfg.SynthesisEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server exited", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn", "warning":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
