package model

import (
	"context"

	"pudding/internal/entity"
)

// SeedDefaultTools 在工具表为空时写入默认工具目录。
// 默认目录与站点首发时的三件套一致；已有数据时不做任何改动，
// 管理后台的增删改不会被种子覆盖。
func SeedDefaultTools(ctx context.Context, repo Repository) error {
	if repo == nil {
		return nil
	}

	count, err := repo.CountTools(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []entity.DbTool{
		{
			ID:          "markdown",
			Name:        "Markdown 编辑器",
			Description: "实时的 Markdown 转换与预览工具，支持代码高亮。",
			IconName:    "Code",
			Category:    "开发",
			IsPremium:   false,
			IsActive:    true,
		},
		{
			ID:          "json-format",
			Name:        "JSON 格式化",
			Description: "让杂乱的 JSON 字符串变得清晰易读。",
			IconName:    "FileJson",
			Category:    "数据",
			IsPremium:   false,
			IsActive:    true,
		},
		{
			ID:          "ai-writer",
			Name:        "AI 文案生成",
			Description: "智能文案助手，解锁 PRO 后可用。",
			IconName:    "Sparkles",
			Category:    "智能",
			IsPremium:   true,
			Price:       19.9,
			IsActive:    true,
		},
	}

	for idx := range defaults {
		tool := defaults[idx]
		if err := repo.CreateTool(ctx, &tool); err != nil {
			return err
		}
	}
	return nil
}
