package enhance

import (
	"context"
	"strings"
	"testing"
	"time"

	"medscribe/internal/fault"
	"medscribe/internal/upstream/openai"
)

type fakeChatClient struct {
	request openai.ChatCompletionRequest
	resp    openai.ChatCompletionResponse
	err     error
	calls   int
}

func (f *fakeChatClient) ChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.request = req
	return f.resp, f.err
}

func newTestService(client *fakeChatClient) *Service {
	return New(client, "test-model", 2000, 2*time.Second)
}

func TestEnhanceEmptyTextShortCircuits(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		client := &fakeChatClient{}
		svc := newTestService(client)

		result, err := svc.Enhance(context.Background(), Input{Text: text, Mode: ModeCorrection, Language: "en"})
		if err != nil {
			t.Fatalf("text %q: Enhance() error = %v", text, err)
		}
		if client.calls != 0 {
			t.Fatalf("text %q: expected zero vendor calls, got %d", text, client.calls)
		}
		if result.EnhancedText != result.OriginalText {
			t.Fatalf("text %q: enhanced %q should equal original %q", text, result.EnhancedText, result.OriginalText)
		}
	}
}

func TestEnhanceRejectsUnknownModeBeforeVendorCall(t *testing.T) {
	client := &fakeChatClient{}
	svc := newTestService(client)

	_, err := svc.Enhance(context.Background(), Input{Text: "some text", Mode: "summarize", Language: "en"})
	if !fault.Is(err, fault.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if client.calls != 0 {
		t.Fatal("unknown mode must be rejected before any vendor call")
	}
}

func TestEnhanceRejectsOverlongTextLocally(t *testing.T) {
	client := &fakeChatClient{}
	svc := newTestService(client)

	_, err := svc.Enhance(context.Background(), Input{
		Text: strings.Repeat("a", 5000),
		Mode: ModeCorrection,
	})
	if !fault.Is(err, fault.InvalidInput) {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
	if client.calls != 0 {
		t.Fatal("over-length text must be rejected before any vendor call")
	}
}

func TestEnhanceCeilingCountsCharactersNotBytes(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{Content: "out"}}
	svc := newTestService(client)

	// 1500 Cyrillic characters are 3000 bytes: under the 2000-character
	// ceiling, so the text must be accepted.
	text := strings.Repeat("д", 1500)
	if _, err := svc.Enhance(context.Background(), Input{Text: text, Mode: ModeCorrection, Language: "ru"}); err != nil {
		t.Fatalf("1500-character text must pass the 2000-character ceiling, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected one vendor call, got %d", client.calls)
	}

	_, err := svc.Enhance(context.Background(), Input{Text: strings.Repeat("д", 2001), Mode: ModeCorrection, Language: "ru"})
	if !fault.Is(err, fault.InvalidInput) {
		t.Fatalf("2001 characters must exceed the ceiling, got %v", err)
	}
}

func TestEnhanceExplanationMode(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{
		Content: "The patient complains of shortness of breath.",
		Usage:   &openai.TokenUsage{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52},
	}}
	svc := newTestService(client)

	result, err := svc.Enhance(context.Background(), Input{Text: "Pt c/o SOB", Mode: ModeExplanation, Language: "en"})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one vendor call, got %d", client.calls)
	}
	if result.EnhancedText == "" {
		t.Fatal("expected non-empty enhanced text")
	}
	if !result.Analysis.HasMedicalTerms {
		t.Fatal("expected has_medical_terms for clinical shorthand")
	}
	if len(client.request.Messages) != 2 {
		t.Fatalf("unexpected message count: %d", len(client.request.Messages))
	}
	if !strings.Contains(client.request.Messages[0].Content, "explain it in plain language") {
		t.Fatalf("expected explanation template, got %q", client.request.Messages[0].Content)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 52 {
		t.Fatalf("unexpected usage: %+v", result.Usage)
	}
}

func TestEnhanceUsesOneTemplatePerMode(t *testing.T) {
	wantFragments := map[Mode]string{
		ModeCorrection:  "transcription corrector",
		ModeExplanation: "plain language",
		ModeRephrase:    "professional medical language",
	}
	for mode, fragment := range wantFragments {
		client := &fakeChatClient{resp: openai.ChatCompletionResponse{Content: "out"}}
		svc := newTestService(client)

		if _, err := svc.Enhance(context.Background(), Input{Text: "BP elevated", Mode: mode}); err != nil {
			t.Fatalf("mode %s: Enhance() error = %v", mode, err)
		}
		if !strings.Contains(client.request.Messages[0].Content, fragment) {
			t.Fatalf("mode %s: template missing %q", mode, fragment)
		}
	}
}

func TestEnhanceSanitizesQuotedReply(t *testing.T) {
	client := &fakeChatClient{resp: openai.ChatCompletionResponse{Content: "\"Blood pressure elevated.\""}}
	svc := newTestService(client)

	result, err := svc.Enhance(context.Background(), Input{Text: "BP elevated", Mode: ModeCorrection})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if result.EnhancedText != "Blood pressure elevated." {
		t.Fatalf("unexpected enhanced text: %q", result.EnhancedText)
	}
}

func TestEnhancePropagatesVendorFault(t *testing.T) {
	client := &fakeChatClient{err: fault.FromVendorStatus("enhancement", 500, "boom")}
	svc := newTestService(client)

	_, err := svc.Enhance(context.Background(), Input{Text: "BP elevated", Mode: ModeCorrection})
	if !fault.Is(err, fault.VendorUnavailable) {
		t.Fatalf("expected VendorUnavailable, got %v", err)
	}
}

func TestAnalysisCountsRunes(t *testing.T) {
	a := analyze("Pt c/o SOB", "The patient complains of shortness of breath.")
	if a.OriginalChars != 10 {
		t.Fatalf("unexpected original chars: %d", a.OriginalChars)
	}
	if a.EnhancedChars != 45 {
		t.Fatalf("unexpected enhanced chars: %d", a.EnhancedChars)
	}
	if !a.HasMedicalTerms {
		t.Fatal("expected medical terms in analysis")
	}
}

func TestContainsMedicalTerms(t *testing.T) {
	cases := map[string]bool{
		"Pt c/o SOB":                       true,
		"patient has elevated BP.":         true,
		"Hypertension, controlled":         true,
		"the weather is nice today":        false,
		"":                                 false,
		"taking metformin 500 mg":          true,
		"follow up with plumber next week": false,
	}
	for text, want := range cases {
		if got := ContainsMedicalTerms(text); got != want {
			t.Fatalf("ContainsMedicalTerms(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestModesCatalog(t *testing.T) {
	svc := newTestService(&fakeChatClient{})
	modes := svc.Modes()
	if len(modes) != 3 {
		t.Fatalf("unexpected mode count: %d", len(modes))
	}
	if modes[0].Mode != ModeCorrection || modes[1].Mode != ModeExplanation || modes[2].Mode != ModeRephrase {
		t.Fatalf("unexpected mode order: %+v", modes)
	}
}
