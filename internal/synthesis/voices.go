package synthesis

import "strings"

type VoiceInfo struct {
	Language    string
	Gender      string
	Description string
}

// auraVoices is the Deepgram Aura voice catalog served by /api/tts/voices.
var auraVoices = map[string]VoiceInfo{
	"aura-asteria-en": {Language: "en", Gender: "female", Description: "Warm, conversational"},
	"aura-luna-en":    {Language: "en", Gender: "female", Description: "Polite, younger"},
	"aura-stella-en":  {Language: "en", Gender: "female", Description: "Friendly, customer service"},
	"aura-athena-en":  {Language: "en", Gender: "female", Description: "Professional, confident"},
	"aura-hera-en":    {Language: "en", Gender: "female", Description: "Business, authoritative"},
	"aura-orion-en":   {Language: "en", Gender: "male", Description: "Conversational, approachable"},
	"aura-arcas-en":   {Language: "en", Gender: "male", Description: "Calm, natural"},
	"aura-perseus-en": {Language: "en", Gender: "male", Description: "Professional, confident"},
	"aura-angus-en":   {Language: "en", Gender: "male", Description: "Narrative, storytelling"},
	"aura-orpheus-en": {Language: "en", Gender: "male", Description: "Confident, booming"},
	"aura-helios-en":  {Language: "en", Gender: "male", Description: "Upbeat, energetic"},
}

func (s *Service) Voices() map[string]VoiceInfo {
	out := make(map[string]VoiceInfo, len(auraVoices))
	for name, info := range auraVoices {
		out[name] = info
	}
	return out
}

// RecommendVoice picks a voice for a language tag and optional gender
// preference, falling back to the configured default when nothing matches.
func (s *Service) RecommendVoice(language, gender string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if idx := strings.IndexByte(language, '-'); idx > 0 {
		language = language[:idx]
	}
	gender = strings.ToLower(strings.TrimSpace(gender))

	best := ""
	for name, info := range auraVoices {
		if language != "" && info.Language != language {
			continue
		}
		if gender != "" && info.Gender != gender {
			continue
		}
		if best == "" || name < best {
			best = name
		}
	}
	if best == "" {
		if s.defaultVoice != "" {
			return s.defaultVoice
		}
		return "aura-asteria-en"
	}
	return best
}
