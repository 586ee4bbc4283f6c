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

type GeminiText struct {
	httpClient   *http.Client
	GeminiAPIKey string
	model        string
}

func NewGeminiText(cfg config.Config) (*GeminiText, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, errors.New("gemini api key is not configured")
	}

	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiText{
		httpClient:   &http.Client{},
		GeminiAPIKey: cfg.GeminiAPIKey,
		model:        model,
	}, nil
}

func (g *GeminiText) ProviderID() string {
	return "gemini"
}

func (g *GeminiText) Generate(ctx context.Context, prompt string) (string, error) {
	logger := providerLogger(ctx, g.ProviderID(), g.model)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_text_start")

	payload := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiContentPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiConfig{
			MaxOutputTokens: 2048,
			Temperature:     0.8,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_payload_marshal_failed")
		return "", err
	}

	endpoint := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s", g.model, g.GeminiAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_request_build_failed")
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_request_failed")
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithField("status", resp.StatusCode).WithError(err).Error("llm_generate_text_response_read_failed")
		return "", err
	}

	logger.WithField("status", resp.StatusCode).Info("llm_generate_text_response_status")
	if resp.StatusCode >= http.StatusBadRequest {
		logger.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"body_preview": logSnippet(string(respBody)),
		}).Warn("llm_generate_text_response_error")
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", errors.New(apiErr.Error.Message)
		}
		return "", fmt.Errorf("gemini request failed with status %d", resp.StatusCode)
	}

	text, err := extractGeminiText(respBody)
	if err != nil {
		logger.WithError(err).Warn("llm_generate_text_no_parseable_content")
		return "", err
	}

	logger.WithFields(logrus.Fields{
		"text_length":  len([]rune(text)),
		"text_preview": logSnippet(text),
	}).Info("llm_generate_text_success")
	return text, nil
}

// extractGeminiText 拼接响应里所有候选的文本片段。
func extractGeminiText(body []byte) (string, error) {
	var apiResponse geminiResponse
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, candidate := range apiResponse.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				if builder.Len() > 0 {
					builder.WriteString("\n")
				}
				builder.WriteString(text)
			}
		}
	}

	result := strings.TrimSpace(builder.String())
	if result == "" {
		return "", errors.New("gemini response did not include text content")
	}
	return result, nil
}

type geminiContentPart struct {
	Text string `json:"text,omitempty"`
}

type geminiContent struct {
	Role  string              `json:"role"`
	Parts []geminiContentPart `json:"parts"`
}

type geminiConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig *geminiConfig   `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiContentPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var _ TextService = (*GeminiText)(nil)
