package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medscribe/internal/config"
	"medscribe/internal/enhance"
	"medscribe/internal/fault"
	"medscribe/internal/model"
	"medscribe/internal/synthesis"
	"medscribe/internal/transcription"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

type TranscriptionService interface {
	Transcribe(ctx context.Context, in transcription.Input) (transcription.Result, error)
	Languages() map[string]string
}

type EnhancementService interface {
	Enhance(ctx context.Context, in enhance.Input) (enhance.Result, error)
	Modes() []enhance.ModeInfo
}

type SynthesisService interface {
	Enabled() bool
	Synthesize(ctx context.Context, in synthesis.Input) (synthesis.Result, error)
	Voices() map[string]synthesis.VoiceInfo
	RecommendVoice(language, gender string) string
}

type UpstreamChecker interface {
	CheckModels(ctx context.Context) error
}

type MetricsObserver interface {
	ObserveHTTP(route, method string, status int, duration time.Duration)
	IncEnhanceRequest(mode string)
	IncEnhanceShortCircuit()
}

type Dependencies struct {
	Transcription  TranscriptionService
	Enhancement    EnhancementService
	Synthesis      SynthesisService
	Upstream       UpstreamChecker
	Metrics        MetricsObserver
	MetricsHandler http.Handler
}

type server struct {
	cfg          config.Config
	logger       *slog.Logger
	transcriber  TranscriptionService
	enhancer     EnhancementService
	synthesizer  SynthesisService
	upstream     UpstreamChecker
	metrics      MetricsObserver
	metricsRoute http.Handler
}

type ctxKey string

const (
	requestIDHeader  = "X-Request-Id"
	requestIDContext = ctxKey("request_id")
	maxJSONBodyBytes = 1 << 20
)

func NewServer(cfg config.Config, logger *slog.Logger, deps Dependencies) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Transcription == nil || deps.Enhancement == nil || deps.Synthesis == nil || deps.Upstream == nil {
		panic("httpapi: all dependencies are required")
	}

	s := &server{
		cfg:          cfg,
		logger:       logger,
		transcriber:  deps.Transcription,
		enhancer:     deps.Enhancement,
		synthesizer:  deps.Synthesis,
		upstream:     deps.Upstream,
		metrics:      deps.Metrics,
		metricsRoute: deps.MetricsHandler,
	}

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if s.metricsRoute != nil {
		r.Handle("/metrics", s.metricsRoute)
	}

	r.Route("/api", func(r chi.Router) {
		// Every POST below costs a vendor call; rate limit them per client.
		r.Use(httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute))

		r.Route("/stt", func(r chi.Router) {
			r.Post("/transcribe", s.handleTranscribe)
			r.Get("/languages", s.handleLanguages)
		})
		r.Route("/enhance", func(r chi.Router) {
			r.Post("/medical", s.handleEnhanceMedical)
			r.Get("/modes", s.handleEnhanceModes)
		})
		r.Route("/tts", func(r chi.Router) {
			r.Post("/synthesize", s.handleSynthesize)
			r.Get("/voices", s.handleVoices)
			r.Get("/voices/recommend/{language}", s.handleRecommendVoice)
		})
	})

	return r
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	synthesisStatus := "disabled"
	if s.synthesizer.Enabled() {
		synthesisStatus = "configured"
	}
	writeJSON(w, http.StatusOK, model.HealthResponse{
		OK: true,
		Services: map[string]string{
			"stt":       "configured",
			"enhance":   "configured",
			"synthesis": synthesisStatus,
		},
	})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.upstream.CheckModels(ctx); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "not_ready", "enhancement vendor check failed", detailsForError(err))
		return
	}
	writeJSON(w, http.StatusOK, model.ReadyResponse{OK: true, ServiceName: "medscribe"})
}

func (s *server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(minInt64(s.cfg.MaxUploadBytes, 8<<20)); err != nil {
		s.handleMultipartReadError(w, r, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "multipart field 'file' is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	audio, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_input", "could not read uploaded file", nil)
		return
	}

	result, err := s.transcriber.Transcribe(r.Context(), transcription.Input{
		Audio:    audio,
		Filename: header.Filename,
		Language: strings.TrimSpace(r.FormValue("language")),
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.TranscriptionResponse{
		Transcript: result.Transcript,
		Confidence: result.Confidence,
		Language:   result.Language,
		Duration:   result.Duration,
	})
}

func (s *server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	languages := s.transcriber.Languages()
	writeJSON(w, http.StatusOK, model.LanguagesResponse{Languages: languages, Count: len(languages)})
}

func (s *server) handleEnhanceMedical(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.EnhancementRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	if s.metrics != nil {
		// Unknown modes collapse to one label value to keep the metric's
		// cardinality bounded by the enumerated set.
		modeLabel := req.Mode
		if !enhance.ValidMode(enhance.Mode(req.Mode)) {
			modeLabel = "invalid"
		}
		s.metrics.IncEnhanceRequest(modeLabel)
		if strings.TrimSpace(req.Text) == "" {
			s.metrics.IncEnhanceShortCircuit()
		}
	}

	result, err := s.enhancer.Enhance(r.Context(), enhance.Input{
		Text:     req.Text,
		Mode:     enhance.Mode(req.Mode),
		Language: req.Language,
	})
	if err != nil {
		s.writeEnhanceError(w, r, req, err)
		return
	}

	analysis := model.EnhancementAnalysis{
		OriginalChars:   result.Analysis.OriginalChars,
		EnhancedChars:   result.Analysis.EnhancedChars,
		HasMedicalTerms: result.Analysis.HasMedicalTerms,
	}
	writeJSON(w, http.StatusOK, model.EnhancementResponse{
		OriginalText:    result.OriginalText,
		EnhancedText:    result.EnhancedText,
		EnhancementMode: string(result.Mode),
		Language:        result.Language,
		Success:         true,
		Analysis:        &analysis,
		Usage:           toModelTokenUsage(result.Usage),
	})
}

// writeEnhanceError keeps the enhancement response shape on vendor failures:
// success=false, empty enhanced text, an error message, and the status from
// the fault taxonomy. Local validation failures use the plain error envelope
// since no enhancement was attempted.
func (s *server) writeEnhanceError(w http.ResponseWriter, r *http.Request, req model.EnhancementRequest, err error) {
	kind := fault.KindOf(err)
	if kind == fault.InvalidInput || errors.Is(err, context.Canceled) {
		s.writeMappedError(w, r, err)
		return
	}

	s.logger.Warn("enhancement failed",
		"request_id", requestIDFromContext(r.Context()),
		"kind", kind.String(),
		"error", err,
	)
	writeJSON(w, statusForKind(kind), model.EnhancementResponse{
		OriginalText:    req.Text,
		EnhancedText:    "",
		EnhancementMode: req.Mode,
		Language:        req.Language,
		Success:         false,
		Error:           messageForFault(err, "text enhancement failed"),
	})
}

func (s *server) handleEnhanceModes(w http.ResponseWriter, r *http.Request) {
	infos := s.enhancer.Modes()
	modes := make([]model.EnhancementMode, 0, len(infos))
	for _, info := range infos {
		modes = append(modes, model.EnhancementMode{Mode: string(info.Mode), Description: info.Description})
	}
	writeJSON(w, http.StatusOK, model.EnhancementModesResponse{Modes: modes, Count: len(modes)})
}

func (s *server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() { _ = r.Body.Close() }()

	var req model.SynthesisRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}
	if err := ensureBodyFullyConsumed(decoder); err != nil {
		s.handleJSONDecodeError(w, r, err)
		return
	}

	result, err := s.synthesizer.Synthesize(r.Context(), synthesis.Input{Text: req.Text, Voice: req.Voice})
	if err != nil {
		if fault.Is(err, fault.FeatureDisabled) {
			writeJSON(w, http.StatusOK, model.SynthesisUnavailableResponse{
				Available: false,
				Detail:    "speech synthesis is not configured",
			})
			return
		}
		s.writeMappedError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="speech.wav"`)
	w.Header().Set("X-Audio-Length", strconv.Itoa(len(result.Audio)))
	w.Header().Set("X-Voice-Model", result.Voice)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Audio)
}

func (s *server) handleVoices(w http.ResponseWriter, r *http.Request) {
	infos := s.synthesizer.Voices()
	voices := make(map[string]model.VoiceInfo, len(infos))
	for name, info := range infos {
		voices[name] = model.VoiceInfo{Language: info.Language, Gender: info.Gender, Description: info.Description}
	}
	writeJSON(w, http.StatusOK, model.VoicesResponse{Voices: voices, Count: len(voices)})
}

func (s *server) handleRecommendVoice(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	gender := r.URL.Query().Get("gender")
	voice := s.synthesizer.RecommendVoice(language, gender)

	info := s.synthesizer.Voices()[voice]
	writeJSON(w, http.StatusOK, map[string]any{
		"recommended_voice": voice,
		"voice_info":        model.VoiceInfo{Language: info.Language, Gender: info.Gender, Description: info.Description},
		"language":          language,
		"gender_preference": gender,
	})
}

func (s *server) handleMultipartReadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", fmt.Sprintf("request exceeds %d bytes", s.cfg.MaxUploadBytes), nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_input", "invalid multipart form data", nil)
}

func (s *server) handleJSONDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "request_too_large", "JSON body too large", nil)
		return
	}
	s.writeError(w, r, http.StatusBadRequest, "invalid_input", "invalid JSON body", nil)
}

func (s *server) writeMappedError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; the outbound call was already abandoned with it.
		s.writeError(w, r, 499, "canceled", "request canceled", nil)
		return
	}

	kind := fault.KindOf(err)
	s.writeError(w, r, statusForKind(kind), kind.String(), messageForFault(err, "request failed"), detailsForError(err))
}

func statusForKind(kind fault.Kind) int {
	switch kind {
	case fault.InvalidInput:
		return http.StatusBadRequest
	case fault.VendorRejected:
		return http.StatusBadGateway
	case fault.VendorUnavailable:
		return http.StatusServiceUnavailable
	case fault.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func messageForFault(err error, fallback string) string {
	var f *fault.Fault
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return fallback
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	if rid := requestIDFromContext(r.Context()); rid != "" {
		w.Header().Set(requestIDHeader, rid)
	}
	writeJSON(w, status, model.ErrorResponse{
		Error:     model.APIError{Code: code, Message: message, Details: details},
		Detail:    message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

func (s *server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDContext, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		duration := time.Since(started)
		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, r.Method, status, duration)
		}

		s.logger.Info("http_request",
			"request_id", requestIDFromContext(r.Context()),
			"method", r.Method,
			"route", route,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "request_id", requestIDFromContext(r.Context()), "panic", rec)
				s.writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func ensureBodyFullyConsumed(decoder *json.Decoder) error {
	var extra any
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return fmt.Errorf("multiple JSON values")
		}
		return err
	}
	return nil
}

func requestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDContext).(string)
	return value
}

func newRequestID() string {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

func toModelTokenUsage(u *enhance.TokenUsage) *model.TokenUsage {
	if u == nil {
		return nil
	}
	return &model.TokenUsage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func detailsForError(err error) map[string]any {
	if err == nil {
		return nil
	}
	details := map[string]any{"error": err.Error()}
	var f *fault.Fault
	if errors.As(err, &f) && f.VendorStatus != 0 {
		details["vendor_status"] = f.VendorStatus
	}
	return details
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
