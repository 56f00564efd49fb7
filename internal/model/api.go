package model

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
	// Detail mirrors Error.Message so clients can always read a flat
	// human-readable string.
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	OK       bool              `json:"ok"`
	Services map[string]string `json:"services,omitempty"`
}

type ReadyResponse struct {
	OK          bool   `json:"ok"`
	ServiceName string `json:"service_name,omitempty"`
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type TranscriptionResponse struct {
	Transcript string   `json:"transcript"`
	Confidence *float64 `json:"confidence,omitempty"`
	Language   string   `json:"language"`
	Duration   float64  `json:"duration,omitempty"`
}

type LanguagesResponse struct {
	Languages map[string]string `json:"languages"`
	Count     int               `json:"count"`
}

type EnhancementRequest struct {
	Text     string `json:"text"`
	Mode     string `json:"mode"`
	Language string `json:"language"`
}

type EnhancementAnalysis struct {
	OriginalChars   int  `json:"original_chars"`
	EnhancedChars   int  `json:"enhanced_chars"`
	HasMedicalTerms bool `json:"has_medical_terms"`
}

type EnhancementResponse struct {
	OriginalText    string               `json:"original_text"`
	EnhancedText    string               `json:"enhanced_text"`
	EnhancementMode string               `json:"enhancement_mode"`
	Language        string               `json:"language"`
	Success         bool                 `json:"success"`
	Analysis        *EnhancementAnalysis `json:"analysis,omitempty"`
	Usage           *TokenUsage          `json:"usage,omitempty"`
	Error           string               `json:"error,omitempty"`
}

type EnhancementMode struct {
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

type EnhancementModesResponse struct {
	Modes []EnhancementMode `json:"modes"`
	Count int               `json:"count"`
}

type SynthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// SynthesisUnavailableResponse is returned with HTTP 200 when the synthesis
// feature is not configured; an unconfigured optional capability is an
// expected state, not an error.
type SynthesisUnavailableResponse struct {
	Available bool   `json:"available"`
	Detail    string `json:"detail"`
}

type VoiceInfo struct {
	Language    string `json:"language"`
	Gender      string `json:"gender"`
	Description string `json:"description"`
}

type VoicesResponse struct {
	Voices map[string]VoiceInfo `json:"voices"`
	Count  int                  `json:"count"`
}
