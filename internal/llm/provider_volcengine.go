package llm

import (
	"context"
	"errors"
	"strings"

	"pudding/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
)

//文档:https://www.volcengine.com/docs/82379/1399008

type VolcengineText struct {
	client *arkruntime.Client
	model  string
}

func NewVolcengineText(cfg config.Config) (*VolcengineText, error) {
	if strings.TrimSpace(cfg.VolcengineAPIKey) == "" {
		return nil, errors.New("volcengine api key is not configured")
	}

	model := strings.TrimSpace(cfg.VolcengineModel)
	if model == "" {
		model = "doubao-seed-1-6-250615"
	}

	return &VolcengineText{
		client: arkruntime.NewClientWithApiKey(cfg.VolcengineAPIKey),
		model:  model,
	}, nil
}

func (v *VolcengineText) ProviderID() string {
	return "volcengine"
}

func (v *VolcengineText) Generate(ctx context.Context, prompt string) (string, error) {
	logger := providerLogger(ctx, v.ProviderID(), v.model)
	logger.WithFields(logrus.Fields{
		"prompt_length":  len([]rune(prompt)),
		"prompt_preview": logSnippet(prompt),
	}).Info("llm_generate_text_start")

	req := volcModel.CreateChatCompletionRequest{
		Model: v.model,
		Messages: []*volcModel.ChatCompletionMessage{
			{
				Role: volcModel.ChatMessageRoleUser,
				Content: &volcModel.ChatCompletionMessageContent{
					StringValue: volcengine.String(prompt),
				},
			},
		},
	}

	resp, err := v.client.CreateChatCompletion(ctx, req)
	if err != nil {
		logger.WithError(err).Error("llm_generate_text_request_failed")
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil || resp.Choices[0].Message.Content.StringValue == nil {
		logger.Warn("llm_generate_text_no_parseable_content")
		return "", errors.New("volcengine response did not include text content")
	}

	text := strings.TrimSpace(*resp.Choices[0].Message.Content.StringValue)
	if text == "" {
		return "", errors.New("volcengine response did not include text content")
	}

	logger.WithFields(logrus.Fields{
		"text_length":  len([]rune(text)),
		"text_preview": logSnippet(text),
	}).Info("llm_generate_text_success")
	return text, nil
}

var _ TextService = (*VolcengineText)(nil)
