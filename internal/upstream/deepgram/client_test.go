package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medscribe/internal/fault"
)

func TestTranscribeParsesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		if got := r.URL.Query().Get("model"); got != "nova-2" {
			t.Fatalf("unexpected model: %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "en-US" {
			t.Fatalf("unexpected language: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "audio-bytes" {
			t.Fatalf("unexpected body: %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"metadata": {"duration": 3.14},
			"results": {"channels": [{"alternatives": [
				{"transcript": " patient presents with chest pain ", "confidence": 0.97}
			]}]}
		}`)
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	got, err := c.Transcribe(context.Background(), []byte("audio-bytes"), "audio/wav", TranscribeParams{
		Model:     "nova-2",
		Language:  "en-US",
		Punctuate: true,
	})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got.Transcript != "patient presents with chest pain" {
		t.Fatalf("unexpected transcript: %q", got.Transcript)
	}
	if got.Confidence == nil || *got.Confidence != 0.97 {
		t.Fatalf("unexpected confidence: %v", got.Confidence)
	}
	if got.Duration != 3.14 {
		t.Fatalf("unexpected duration: %v", got.Duration)
	}
}

func TestTranscribeSilenceIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results": {"channels": [{"alternatives": [{"transcript": "", "confidence": 0}]}]}}`)
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	got, err := c.Transcribe(context.Background(), []byte("silence"), "audio/wav", TranscribeParams{Model: "nova-2"})
	if err != nil {
		t.Fatalf("silent audio should transcribe without error, got %v", err)
	}
	if got.Transcript != "" {
		t.Fatalf("expected empty transcript, got %q", got.Transcript)
	}
}

func TestTranscribeClassifiesVendorErrors(t *testing.T) {
	cases := []struct {
		status int
		want   fault.Kind
	}{
		{http.StatusBadRequest, fault.VendorRejected},
		{http.StatusForbidden, fault.VendorRejected},
		{http.StatusInternalServerError, fault.VendorUnavailable},
		{http.StatusBadGateway, fault.VendorUnavailable},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "vendor says no", tc.status)
		}))
		c := New(ts.URL, "test-key", ts.Client())
		_, err := c.Transcribe(context.Background(), []byte("audio"), "audio/wav", TranscribeParams{Model: "nova-2"})
		ts.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := fault.KindOf(err); got != tc.want {
			t.Fatalf("status %d: got kind %v want %v", tc.status, got, tc.want)
		}
	}
}

func TestTranscribeDeadlineSurfacesAsTimeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		ts.Close()
	}()

	c := New(ts.URL, "test-key", ts.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := c.Transcribe(ctx, []byte("audio"), "audio/wav", TranscribeParams{Model: "nova-2"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := fault.KindOf(err); got != fault.Timeout {
		t.Fatalf("expected Timeout, got %v", got)
	}
	if elapsed := time.Since(started); elapsed > 2*time.Second {
		t.Fatalf("timeout not bounded by the deadline: %v", elapsed)
	}
}

func TestSpeakReturnsAudioBytes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/speak" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("model"); got != "aura-asteria-en" {
			t.Fatalf("unexpected model: %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"text":"take two tablets daily"}` {
			t.Fatalf("unexpected payload: %s", body)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte{0x52, 0x49, 0x46, 0x46})
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	got, err := c.Speak(context.Background(), "take two tablets daily", SpeakParams{
		Model:      "aura-asteria-en",
		Encoding:   "linear16",
		SampleRate: 16000,
	})
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if got.ContentType != "audio/wav" {
		t.Fatalf("unexpected content type: %q", got.ContentType)
	}
	if len(got.Audio) != 4 {
		t.Fatalf("unexpected audio length: %d", len(got.Audio))
	}
}

func TestSpeakClassifiesVendorRejection(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown voice", http.StatusBadRequest)
	}))
	defer ts.Close()

	c := New(ts.URL, "test-key", ts.Client())
	_, err := c.Speak(context.Background(), "hello", SpeakParams{Model: "aura-nope-en"})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := fault.KindOf(err); got != fault.VendorRejected {
		t.Fatalf("expected VendorRejected, got %v", got)
	}
}
