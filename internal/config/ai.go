package config

import (
	"os"
	"strconv"
)

// Protocol selects the tool surface declared to the live model.
type Protocol string

const (
	// ProtocolSingleCall declares only conclude_viva; the model asks
	// questions free-form and tracks the score itself.
	ProtocolSingleCall Protocol = "single_call"

	// ProtocolMultiTool additionally declares get_next_question and
	// evaluate_and_save backed by the question bank.
	ProtocolMultiTool Protocol = "multi_tool"
)

// AIConfig holds all Gemini Live configuration.
type AIConfig struct {
	APIKey  string `json:"-"` // Never serialize
	BaseURL string `json:"baseUrl"`

	// LiveModel is the native-audio model used for viva sessions.
	LiveModel string `json:"liveModel"`

	// DefaultVoice is used when the client sends no voice preference.
	DefaultVoice string `json:"defaultVoice"`

	// SessionMinutes bounds both the spoken exam duration and the
	// ephemeral token expiry (the token never outlives the exam).
	SessionMinutes int `json:"sessionMinutes"`

	Protocol  Protocol `json:"protocol"`
	TimeoutMS int      `json:"timeoutMs"`
}

// DefaultAIConfig returns the AI configuration from the environment.
// Unrecognized LIVE_PROTOCOL values fall back to single_call.
func DefaultAIConfig() *AIConfig {
	protocol := Protocol(os.Getenv("LIVE_PROTOCOL"))
	if protocol != ProtocolMultiTool {
		protocol = ProtocolSingleCall
	}

	return &AIConfig{
		APIKey:         os.Getenv("GEMINI_API_KEY"),
		BaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		LiveModel:      getEnv("GEMINI_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-09-2025"),
		DefaultVoice:   getEnv("GEMINI_VOICE", "Kore"),
		SessionMinutes: getEnvInt("VIVA_SESSION_MINUTES", 5),
		Protocol:       protocol,
		TimeoutMS:      getEnvInt("GEMINI_TIMEOUT_MS", 10000),
	}
}

// IsEnabled returns true if the Gemini API is configured.
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// TokenEndpoint returns the ephemeral auth-token creation endpoint.
func (c *AIConfig) TokenEndpoint() string {
	return c.BaseURL + "/v1alpha/authTokens"
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
