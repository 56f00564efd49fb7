// Package enhance rewrites medical transcripts through the language vendor.
// One fixed instruction template per mode; trivial inputs never reach the
// network.
package enhance

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"medscribe/internal/fault"
	"medscribe/internal/upstream/openai"
)

type Mode string

const (
	ModeCorrection  Mode = "correction"
	ModeExplanation Mode = "explanation"
	ModeRephrase    Mode = "rephrase"
)

const correctionPrompt = `You are a medical transcription corrector. You receive raw speech-to-text output from a healthcare setting and return corrected text.

Your job:
- Fix misrecognized medical terminology, drug names, and dosages.
- Expand clinical abbreviations when the expansion is unambiguous (e.g. "BP" to "blood pressure").
- Fix spelling, grammar, and punctuation errors.
- Preserve the clinical meaning exactly. Never add findings, symptoms, or values the speaker did not say.

Output rules:
- Return ONLY the corrected text, nothing else.
- If the input is empty, return exactly: EMPTY`

const explanationPrompt = `You are a medical communication assistant. You receive clinical text and explain it in plain language a patient can understand.

Your job:
- Explain medical terms, abbreviations, and procedures in everyday words.
- Keep every fact from the original; do not add diagnoses or advice.
- Keep the explanation short and concrete.

Output rules:
- Return ONLY the explanation, nothing else.
- If the input is empty, return exactly: EMPTY`

const rephrasePrompt = `You are a medical documentation assistant. You receive clinical text and rephrase it using professional medical language suitable for a patient record.

Your job:
- Rewrite informal or colloquial wording into standard clinical phrasing.
- Preserve every fact, measurement, and qualifier exactly.
- Do not add or remove clinical content.

Output rules:
- Return ONLY the rephrased text, nothing else.
- If the input is empty, return exactly: EMPTY`

var modePrompts = map[Mode]string{
	ModeCorrection:  correctionPrompt,
	ModeExplanation: explanationPrompt,
	ModeRephrase:    rephrasePrompt,
}

var modeDescriptions = map[Mode]string{
	ModeCorrection:  "Correct medical terminology and expand abbreviations",
	ModeExplanation: "Explain medical terms in patient-friendly language",
	ModeRephrase:    "Rephrase using professional medical language",
}

// ValidMode reports whether m is one of the enumerated enhancement modes.
func ValidMode(m Mode) bool {
	_, ok := modePrompts[m]
	return ok
}

type ChatClient interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Input struct {
	Text     string
	Mode     Mode
	Language string
}

type Analysis struct {
	OriginalChars   int
	EnhancedChars   int
	HasMedicalTerms bool
}

type Result struct {
	OriginalText string
	EnhancedText string
	Mode         Mode
	Language     string
	Analysis     Analysis
	Usage        *TokenUsage
}

type ModeInfo struct {
	Mode        Mode
	Description string
}

type Service struct {
	client   ChatClient
	model    string
	maxChars int
	timeout  time.Duration
}

func New(client ChatClient, model string, maxChars int, timeout time.Duration) *Service {
	return &Service{
		client:   client,
		model:    strings.TrimSpace(model),
		maxChars: maxChars,
		timeout:  timeout,
	}
}

func (s *Service) Enhance(ctx context.Context, in Input) (Result, error) {
	prompt, ok := modePrompts[in.Mode]
	if !ok {
		return Result{}, fault.New(fault.InvalidInput, "unknown enhancement mode %q, must be one of: %s", in.Mode, modeList())
	}
	if utf8.RuneCountInString(in.Text) > s.maxChars {
		return Result{}, fault.New(fault.InvalidInput, "text exceeds %d characters", s.maxChars)
	}

	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = "en"
	}

	result := Result{
		OriginalText: in.Text,
		Mode:         in.Mode,
		Language:     language,
	}

	// Empty or whitespace-only text is returned unchanged without a vendor
	// call. Vendor LLM calls are costly; trivial inputs never reach the
	// network.
	if strings.TrimSpace(in.Text) == "" {
		result.EnhancedText = in.Text
		result.Analysis = analyze(in.Text, result.EnhancedText)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	userMessage := fmt.Sprintf("Respond in language %q.\n\nTEXT: %q", language, in.Text)

	chatResp, err := s.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: 0.0,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return Result{}, err
	}

	result.EnhancedText = sanitizeReply(chatResp.Content)
	result.Analysis = analyze(in.Text, result.EnhancedText)
	if chatResp.Usage != nil {
		result.Usage = &TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		}
	}
	return result, nil
}

// Modes returns the catalog for /api/enhance/modes in declaration order.
func (s *Service) Modes() []ModeInfo {
	modes := []Mode{ModeCorrection, ModeExplanation, ModeRephrase}
	out := make([]ModeInfo, 0, len(modes))
	for _, m := range modes {
		out = append(out, ModeInfo{Mode: m, Description: modeDescriptions[m]})
	}
	return out
}

func analyze(original, enhanced string) Analysis {
	return Analysis{
		OriginalChars:   len([]rune(original)),
		EnhancedChars:   len([]rune(enhanced)),
		HasMedicalTerms: ContainsMedicalTerms(original),
	}
}

func sanitizeReply(value string) string {
	result := strings.TrimSpace(value)
	if result == "" {
		return ""
	}
	if strings.HasPrefix(result, "\"") && strings.HasSuffix(result, "\"") && len(result) > 1 {
		result = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(result, "\""), "\""))
	}
	if result == "EMPTY" {
		return ""
	}
	return result
}

func modeList() string {
	return strings.Join([]string{string(ModeCorrection), string(ModeExplanation), string(ModeRephrase)}, ", ")
}
