// Package synthesis converts text to speech through the Deepgram Aura
// endpoint. The whole capability is optional: without a configured model the
// service reports FeatureDisabled instead of failing.
package synthesis

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"medscribe/internal/fault"
	"medscribe/internal/upstream/deepgram"
)

type Client interface {
	Speak(ctx context.Context, text string, params deepgram.SpeakParams) (deepgram.Speech, error)
}

type Input struct {
	Text  string
	Voice string
}

type Result struct {
	Audio       []byte
	ContentType string
	Voice       string
	Encoding    string
	SampleRate  int
}

type Service struct {
	client       Client
	defaultVoice string
	encoding     string
	sampleRate   int
	maxChars     int
	timeout      time.Duration
}

func New(client Client, defaultVoice, encoding string, sampleRate, maxChars int, timeout time.Duration) *Service {
	return &Service{
		client:       client,
		defaultVoice: strings.TrimSpace(defaultVoice),
		encoding:     strings.TrimSpace(encoding),
		sampleRate:   sampleRate,
		maxChars:     maxChars,
		timeout:      timeout,
	}
}

// Enabled reports whether a synthesis voice is configured. Callers must check
// this (or handle the FeatureDisabled fault) before treating synthesis as
// available.
func (s *Service) Enabled() bool {
	return s.defaultVoice != ""
}

func (s *Service) Synthesize(ctx context.Context, in Input) (Result, error) {
	if !s.Enabled() {
		return Result{}, fault.New(fault.FeatureDisabled, "speech synthesis is not configured")
	}
	if strings.TrimSpace(in.Text) == "" {
		return Result{}, fault.New(fault.InvalidInput, "text is required")
	}
	if utf8.RuneCountInString(in.Text) > s.maxChars {
		return Result{}, fault.New(fault.InvalidInput, "text exceeds %d characters", s.maxChars)
	}

	voice := strings.TrimSpace(in.Voice)
	if voice == "" {
		voice = s.defaultVoice
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	speech, err := s.client.Speak(ctx, in.Text, deepgram.SpeakParams{
		Model:      voice,
		Encoding:   s.encoding,
		SampleRate: s.sampleRate,
	})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Audio:       speech.Audio,
		ContentType: speech.ContentType,
		Voice:       voice,
		Encoding:    s.encoding,
		SampleRate:  s.sampleRate,
	}, nil
}
