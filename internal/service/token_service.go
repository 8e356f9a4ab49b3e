package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"veenoe/internal/config"
	"veenoe/internal/model"
)

// TokenProvisioner issues the single-use, time-limited credential a
// client needs to open a live conversation under a contract.
type TokenProvisioner interface {
	CreateEphemeralToken(ctx context.Context, contract *model.LiveContract) (*model.TokenGrant, error)
}

// GeminiTokenService provisions ephemeral tokens against the Gemini
// Live API. Each token is valid for one connection and expires with
// the session, so a leaked token cannot outlive the exam.
type GeminiTokenService struct {
	config *config.AIConfig
	client *http.Client
}

func NewGeminiTokenService(cfg *config.AIConfig) *GeminiTokenService {
	return &GeminiTokenService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (s *GeminiTokenService) CreateEphemeralToken(ctx context.Context, contract *model.LiveContract) (*model.TokenGrant, error) {
	if !s.config.IsEnabled() {
		return s.mockGrant(contract), nil
	}

	reqBody := s.buildTokenRequest(contract)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.TokenEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini token endpoint returned %d", resp.StatusCode)
	}

	var tokenResp struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.Name == "" {
		return nil, fmt.Errorf("empty token from Gemini")
	}

	return &model.TokenGrant{
		Token:          tokenResp.Name,
		ModelName:      contract.Model,
		VoiceName:      contract.VoiceName,
		SessionMinutes: contract.SessionMinutes,
	}, nil
}

// buildTokenRequest maps the contract onto the Gemini authTokens wire
// shape: one use, expiry bounded by the session duration, and the
// live-connect constraints pinning model, instruction and tools.
func (s *GeminiTokenService) buildTokenRequest(contract *model.LiveContract) map[string]interface{} {
	liveConfig := map[string]interface{}{
		"session_resumption":         map[string]interface{}{},
		"response_modalities":        contract.ResponseModalities,
		"system_instruction":         contract.SystemInstruction,
		"tools":                      []map[string]interface{}{{"function_declarations": contract.Tools}},
		"input_audio_transcription":  map[string]interface{}{},
		"output_audio_transcription": map[string]interface{}{},
	}

	if contract.VoiceName != "" {
		liveConfig["speech_config"] = map[string]interface{}{
			"voice_config": map[string]interface{}{
				"prebuilt_voice_config": map[string]string{"voice_name": contract.VoiceName},
			},
		}
	}

	return map[string]interface{}{
		"uses":        1,
		"expire_time": time.Now().UTC().Add(time.Duration(contract.SessionMinutes) * time.Minute).Format(time.RFC3339),
		"live_connect_constraints": map[string]interface{}{
			"model":  contract.Model,
			"config": liveConfig,
		},
		"http_options": map[string]string{"api_version": "v1alpha"},
	}
}

// mockGrant lets the stack run end to end without an API key.
func (s *GeminiTokenService) mockGrant(contract *model.LiveContract) *model.TokenGrant {
	return &model.TokenGrant{
		Token:          "mock-token-" + uuid.New().String(),
		ModelName:      contract.Model,
		VoiceName:      contract.VoiceName,
		SessionMinutes: contract.SessionMinutes,
	}
}
