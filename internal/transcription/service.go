// Package transcription turns uploaded audio into text through the speech
// vendor. All local validation happens before the vendor is contacted.
package transcription

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"medscribe/internal/fault"
	"medscribe/internal/upstream/deepgram"
)

type Client interface {
	Transcribe(ctx context.Context, audio []byte, contentType string, params deepgram.TranscribeParams) (deepgram.Transcription, error)
}

// supportedLanguages is the catalog served by /api/stt/languages. Unknown
// tags are still passed through to the vendor unvalidated; this list is
// informational for the client UI.
var supportedLanguages = map[string]string{
	"en-US": "English (US)",
	"en-GB": "English (UK)",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
	"pt":    "Portuguese",
	"ja":    "Japanese",
	"ko":    "Korean",
	"zh":    "Chinese",
	"nl":    "Dutch",
	"hi":    "Hindi",
	"ru":    "Russian",
}

var supportedExtensions = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".flac": "audio/flac",
}

type Input struct {
	Audio    []byte
	Filename string
	Language string
}

type Result struct {
	Transcript string
	Confidence *float64
	Language   string
	Duration   float64
}

type Service struct {
	client          Client
	model           string
	defaultLanguage string
	maxBytes        int64
	timeout         time.Duration
}

func New(client Client, model, defaultLanguage string, maxBytes int64, timeout time.Duration) *Service {
	return &Service{
		client:          client,
		model:           strings.TrimSpace(model),
		defaultLanguage: strings.TrimSpace(defaultLanguage),
		maxBytes:        maxBytes,
		timeout:         timeout,
	}
}

func (s *Service) Transcribe(ctx context.Context, in Input) (Result, error) {
	if len(in.Audio) == 0 {
		return Result{}, fault.New(fault.InvalidInput, "audio payload is empty")
	}
	if s.maxBytes > 0 && int64(len(in.Audio)) > s.maxBytes {
		return Result{}, fault.New(fault.InvalidInput, "audio payload exceeds %d bytes", s.maxBytes)
	}
	contentType, err := contentTypeFor(in.Filename)
	if err != nil {
		return Result{}, err
	}

	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = s.defaultLanguage
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vendorResult, err := s.client.Transcribe(ctx, in.Audio, contentType, deepgram.TranscribeParams{
		Model:       s.model,
		Language:    language,
		Punctuate:   true,
		SmartFormat: true,
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Transcript: vendorResult.Transcript,
		Confidence: vendorResult.Confidence,
		Language:   vendorResult.Language,
		Duration:   vendorResult.Duration,
	}
	if result.Language == "" {
		result.Language = language
	}
	return result, nil
}

// Languages returns the catalog in stable code order.
func (s *Service) Languages() map[string]string {
	out := make(map[string]string, len(supportedLanguages))
	for code, name := range supportedLanguages {
		out[code] = name
	}
	return out
}

// SupportedFormats lists the accepted upload extensions without the leading
// dot, sorted, for error messages and discovery.
func SupportedFormats() []string {
	out := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

func contentTypeFor(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		// Browser recordings often arrive as a bare blob; treat them as webm,
		// the MediaRecorder default.
		return supportedExtensions[".webm"], nil
	}
	contentType, ok := supportedExtensions[ext]
	if !ok {
		return "", fault.New(fault.InvalidInput, "unsupported audio format %q, supported: %s", strings.TrimPrefix(ext, "."), strings.Join(SupportedFormats(), ", "))
	}
	return contentType, nil
}
