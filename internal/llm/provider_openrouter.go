package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"pudding/internal/config"

	"github.com/sirupsen/logrus"
)

type OpenRouterText struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
	model      string
}

func NewOpenRouterText(cfg config.Config) (*OpenRouterText, error) {
	apiKey := strings.TrimSpace(cfg.OpenRouterAPIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter api key is not configured")
	}

	endpoint := strings.TrimSpace(cfg.OpenRouterBaseURL)
	if endpoint == "" {
		endpoint = "https://openrouter.ai/api/v1/chat/completions"
	}

	model := strings.TrimSpace(cfg.OpenRouterModel)
	if model == "" {
		model = "google/gemini-2.5-flash"
	}

	return &OpenRouterText{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		endpoint:   endpoint,
		model:      model,
	}, nil
}

func (o *OpenRouterText) ProviderID() string {
	return "openrouter"
}

type orMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type orRequest struct {
	Model    string      `json:"model"`
	Messages []orMessage `json:"messages"`
	Stream   bool        `json:"stream"`
}

type orResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenRouterText) Generate(ctx context.Context, prompt string) (string, error) {
	logger := providerLogger(ctx, o.ProviderID(), o.model)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_text_start")

	payload := orRequest{
		Model:    o.model,
		Messages: []orMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_request_failed")
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	logger.WithField("status", resp.StatusCode).Info("llm_generate_text_response_status")
	if resp.StatusCode != http.StatusOK {
		logger.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"body_preview": logSnippet(string(respBody)),
		}).Error("llm_generate_text_response_error")
		return "", fmt.Errorf("openrouter http %d: %s", resp.StatusCode, logSnippet(string(respBody)))
	}

	var parsed orResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", errors.New(parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openrouter response did not include choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openrouter response did not include text content")
	}

	logger.WithFields(logrus.Fields{
		"text_length":  len([]rune(text)),
		"text_preview": logSnippet(text),
	}).Info("llm_generate_text_success")
	return text, nil
}

var _ TextService = (*OpenRouterText)(nil)
