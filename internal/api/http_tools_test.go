package api

import (
	"testing"

	"pudding/internal/entity"
)

func TestDecorateTool(t *testing.T) {
	freeTool := entity.DbTool{ID: "markdown", IsPremium: false, IsActive: true}
	premiumTool := entity.DbTool{ID: "ai-writer", IsPremium: true, Price: 19.9, IsActive: true}
	externalTool := entity.DbTool{ID: "regex101", IsPremium: false, IsActive: true, ExternalURL: "https://regex101.com"}

	anonymous := (*entity.UserProfile)(nil)
	normal := &entity.UserProfile{ID: 1, Role: entity.UserRoleUser}
	vip := &entity.UserProfile{ID: 2, Role: entity.UserRoleVIP, IsPremium: true}
	admin := &entity.UserProfile{ID: 3, Role: entity.UserRoleAdmin, IsPremium: true}
	legacy := &entity.UserProfile{ID: 4, Role: entity.UserRoleUser, IsPremium: true}

	tests := []struct {
		name       string
		user       *entity.UserProfile
		tool       entity.DbTool
		wantLocked bool
		wantPrem   bool
		wantAction string
	}{
		{"游客看免费工具", anonymous, freeTool, true, false, entity.ToolActionLogin},
		{"游客看付费工具", anonymous, premiumTool, true, true, entity.ToolActionLogin},
		{"普通用户用免费工具", normal, freeTool, false, false, entity.ToolActionLaunch},
		{"普通用户被付费工具挡住", normal, premiumTool, true, true, entity.ToolActionUpgrade},
		{"vip 解锁付费工具", vip, premiumTool, false, false, entity.ToolActionLaunch},
		{"管理员解锁付费工具", admin, premiumTool, false, false, entity.ToolActionLaunch},
		{"历史付费标记同样解锁", legacy, premiumTool, false, false, entity.ToolActionLaunch},
		{"外链工具给外跳动作", normal, externalTool, false, false, entity.ToolActionExternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := decorateTool(tt.user, tt.tool)
			if item.Locked != tt.wantLocked {
				t.Errorf("Locked = %v, want %v", item.Locked, tt.wantLocked)
			}
			if item.PremiumLocked != tt.wantPrem {
				t.Errorf("PremiumLocked = %v, want %v", item.PremiumLocked, tt.wantPrem)
			}
			if item.Action != tt.wantAction {
				t.Errorf("Action = %q, want %q", item.Action, tt.wantAction)
			}
		})
	}
}
