// Package llm 提供文案生成的统一入口，按配置选择具体服务商。
package llm

import (
	"context"
	"fmt"
	"strings"

	"pudding/internal/config"

	"github.com/sirupsen/logrus"
)

// TextService 定义文本生成服务的接口。
type TextService interface {
	// ProviderID 返回服务商标识。
	ProviderID() string

	// Generate 以给定提示词同步生成一段文案。
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewTextService 根据配置实例化文本生成服务。
func NewTextService(cfg config.Config) (TextService, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.TextProvider))
	switch provider {
	case "", "gemini":
		return NewGeminiText(cfg)
	case "openrouter":
		return NewOpenRouterText(cfg)
	case "volcengine":
		return NewVolcengineText(cfg)
	default:
		return nil, fmt.Errorf("unsupported text provider: %s", cfg.TextProvider)
	}
}

const logSnippetLimit = 120

func providerLogger(ctx context.Context, providerID, model string) *logrus.Entry {
	fields := logrus.Fields{
		"provider": providerID,
	}
	if trimmedModel := strings.TrimSpace(model); trimmedModel != "" {
		fields["model"] = trimmedModel
	}

	entry := logrus.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

func logSnippet(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	runes := []rune(value)
	if len(runes) <= logSnippetLimit {
		return value
	}

	return string(runes[:logSnippetLimit]) + "..."
}
