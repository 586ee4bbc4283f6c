// Package entitlement decides whether a visitor may use a gated tool.
//
// 历史上"付费身份"有过两种编码：早期是 role(admin|user) 加布尔字段
// is_premium_user，后期改为 role(admin|vip|user) 枚举。这里在边界处把
// 两种形态统一成带派生 IsPremium 的规范化资料，判定逻辑只看规范化结果。
package entitlement

import "pudding/internal/entity"

// IsPremium reports derived premium access for a role/flag pair.
// Admin implies full access by policy, not by flag inheritance.
func IsPremium(role string, legacyFlag bool) bool {
	switch role {
	case entity.UserRoleAdmin, entity.UserRoleVIP:
		return true
	}
	return legacyFlag
}

// Resolve builds the canonical profile from a stored user row.
func Resolve(user *entity.DbUser) *entity.UserProfile {
	if user == nil {
		return nil
	}
	return &entity.UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		Role:        user.Role,
		IsPremium:   IsPremium(user.Role, user.IsPremiumUser),
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// HasAccess reports whether user may use tool.
//
// 匿名访问一律拒绝；免费工具登录即可用；付费工具要求 admin、vip
// 或历史付费标记。纯函数，每次渲染/请求重新求值，升级后立即生效。
func HasAccess(user *entity.UserProfile, tool *entity.DbTool) bool {
	if user == nil || tool == nil {
		return false
	}
	if !tool.IsPremium {
		return true
	}
	return user.Role == entity.UserRoleAdmin || user.Role == entity.UserRoleVIP || user.IsPremium
}
