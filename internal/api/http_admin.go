package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pudding/internal/auth"
	"pudding/internal/entitlement"
	"pudding/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func isValidRole(role string) bool {
	switch role {
	case entity.UserRoleAdmin, entity.UserRoleVIP, entity.UserRoleUser:
		return true
	}
	return false
}

// AdminStats 管理后台首页的汇总数字。
func (h *HTTPHandler) AdminStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, err := h.repo.CountUsers(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count users")
		InternalError(c, "failed to load stats")
		return
	}
	articles, err := h.repo.CountArticles(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count articles")
		InternalError(c, "failed to load stats")
		return
	}
	comments, err := h.repo.CountComments(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count comments")
		InternalError(c, "failed to load stats")
		return
	}
	tools, err := h.repo.CountTools(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to count tools")
		InternalError(c, "failed to load stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":    users,
		"articles": articles,
		"comments": comments,
		"tools":    tools,
	})
}

// ListUsers 管理员分页查看用户。
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var params entity.UserQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to list users")
		return
	}

	profiles := make([]entity.UserProfile, 0, len(users))
	for idx := range users {
		profiles = append(profiles, *entitlement.Resolve(&users[idx]))
	}

	c.JSON(http.StatusOK, entity.UserListResponse{Users: profiles, Meta: meta})
}

// CreateUser 管理员手工开账号，可直接指定角色。
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	password := strings.TrimSpace(req.Password)
	if email == "" {
		MissingField(c, "email")
		return
	}
	if password == "" {
		MissingField(c, "password")
		return
	}
	if !isValidRole(req.Role) {
		BadRequest(c, ErrCodeInvalidRequest, "role must be admin, vip or user")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create user")
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = email
	}

	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Role:         req.Role,
		IsActive:     isActive,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, ErrCodeEmailExists, "email already registered")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, entitlement.Resolve(user))
}

// UpdateUser 管理员修改用户：角色、展示名、密码、启用状态。
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	admin := CurrentUser(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		if trimmed == "" {
			MissingField(c, "display_name")
			return
		}
		updates["display_name"] = trimmed
	}
	if req.Role != nil {
		if !isValidRole(*req.Role) {
			BadRequest(c, ErrCodeInvalidRequest, "role must be admin, vip or user")
			return
		}
		// 不允许把自己降级，避免把最后一个管理员锁在门外
		if admin != nil && admin.ID == id && *req.Role != entity.UserRoleAdmin {
			BadRequest(c, ErrCodeInvalidRequest, "cannot change own role")
			return
		}
		updates["role"] = *req.Role
	}
	if req.Password != nil {
		password := strings.TrimSpace(*req.Password)
		if password == "" {
			MissingField(c, "password")
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			logrus.WithError(err).Error("failed to hash password")
			InternalError(c, "failed to update user")
			return
		}
		updates["password_hash"] = hash
	}
	if req.IsActive != nil {
		if admin != nil && admin.ID == id && !*req.IsActive {
			BadRequest(c, ErrCodeInvalidRequest, "cannot disable own account")
			return
		}
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetUserByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to load user")
		InternalError(c, "failed to load user")
		return
	}

	if err := h.repo.UpdateUser(ctx, id, updates); err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to update user")
		InternalError(c, "failed to update user")
		return
	}

	// 角色或状态变更即时生效
	h.sessions.Invalidate(id)

	user, err := h.repo.GetUserByID(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("user_id", id).Error("failed to reload user")
		InternalError(c, "failed to reload user")
		return
	}

	c.JSON(http.StatusOK, entitlement.Resolve(user))
}

// DeleteUser 管理员删除账号，不能删除自己。
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	admin := CurrentUser(c)
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if admin != nil && admin.ID == id {
		BadRequest(c, ErrCodeCannotDeleteSelf, "cannot delete own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "用户不存在")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to delete user")
		InternalError(c, "failed to delete user")
		return
	}

	h.sessions.Invalidate(id)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
