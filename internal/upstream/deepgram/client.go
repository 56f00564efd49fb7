// Package deepgram is a thin client for the Deepgram prerecorded
// transcription and Aura speech synthesis endpoints. It owns all Deepgram
// wire shapes; callers only see domain results and normalized faults.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"medscribe/internal/fault"
)

const vendorName = "deepgram"

type ObserverFunc func(endpoint string, status int, duration time.Duration)

type Option func(*Client)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	observer   ObserverFunc
}

type TranscribeParams struct {
	Model       string
	Language    string
	Punctuate   bool
	SmartFormat bool
}

type Transcription struct {
	Transcript string
	// Confidence is nil when the vendor response carried no alternatives,
	// which happens for silent audio.
	Confidence *float64
	Language   string
	Duration   float64
}

type SpeakParams struct {
	Model      string
	Encoding   string
	SampleRate int
}

type Speech struct {
	Audio       []byte
	ContentType string
}

func WithObserver(observer ObserverFunc) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func New(baseURL, apiKey string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string, params TranscribeParams) (Transcription, error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe("listen", statusCode, time.Since(started)) }()

	query := url.Values{}
	query.Set("model", params.Model)
	if params.Language != "" {
		query.Set("language", params.Language)
	}
	query.Set("punctuate", strconv.FormatBool(params.Punctuate))
	query.Set("smart_format", strconv.FormatBool(params.SmartFormat))

	endpoint := c.baseURL + "/v1/listen?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return Transcription{}, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transcription{}, fault.FromTransport(vendorName, err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcription{}, fault.FromTransport(vendorName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Transcription{}, fault.FromVendorStatus(vendorName, resp.StatusCode, string(respBody))
	}

	return parseTranscription(respBody)
}

func (c *Client) Speak(ctx context.Context, text string, params SpeakParams) (Speech, error) {
	started := time.Now()
	statusCode := 0
	defer func() { c.observe("speak", statusCode, time.Since(started)) }()

	query := url.Values{}
	query.Set("model", params.Model)
	if params.Encoding != "" {
		query.Set("encoding", params.Encoding)
	}
	if params.SampleRate > 0 {
		query.Set("sample_rate", strconv.Itoa(params.SampleRate))
	}

	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return Speech{}, err
	}

	endpoint := c.baseURL + "/v1/speak?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Speech{}, err
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Speech{}, fault.FromTransport(vendorName, err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Speech{}, fault.FromTransport(vendorName, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Speech{}, fault.FromVendorStatus(vendorName, resp.StatusCode, string(respBody))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return Speech{Audio: respBody, ContentType: contentType}, nil
}

func (c *Client) observe(endpoint string, status int, duration time.Duration) {
	if c.observer != nil {
		c.observer(endpoint, status, duration)
	}
}

func parseTranscription(data []byte) (Transcription, error) {
	var parsed struct {
		Metadata struct {
			Duration  float64 `json:"duration"`
			ModelInfo map[string]struct {
				Language string `json:"language"`
			} `json:"model_info"`
		} `json:"metadata"`
		Results struct {
			Channels []struct {
				DetectedLanguage string `json:"detected_language"`
				Alternatives     []struct {
					Transcript string  `json:"transcript"`
					Confidence float64 `json:"confidence"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Transcription{}, fault.Wrap(fault.VendorUnavailable, err, "invalid transcription response")
	}
	if len(parsed.Results.Channels) == 0 {
		return Transcription{}, fault.New(fault.VendorUnavailable, "transcription response has no channels")
	}

	channel := parsed.Results.Channels[0]
	result := Transcription{
		Language: channel.DetectedLanguage,
		Duration: parsed.Metadata.Duration,
	}
	// An empty alternatives list means silence; that is a normal outcome,
	// not a failure.
	if len(channel.Alternatives) > 0 {
		alt := channel.Alternatives[0]
		result.Transcript = strings.TrimSpace(alt.Transcript)
		confidence := alt.Confidence
		result.Confidence = &confidence
	}
	if result.Language == "" {
		for _, info := range parsed.Metadata.ModelInfo {
			if info.Language != "" {
				result.Language = info.Language
				break
			}
		}
	}
	return result, nil
}
