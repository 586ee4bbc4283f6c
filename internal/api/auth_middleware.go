package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"pudding/internal/entity"
	"pudding/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	currentUserContextKey = "current-user"
)

// bearerToken 从 Authorization 头里取出 Bearer Token，没有则返回空串。
func bearerToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware JWT 认证中间件：令牌无效或账号被禁时拒绝请求。
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
				Code:    ErrCodeUnauthorized,
				Message: "缺少授权头",
			})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		profile, err := h.sessions.Resolve(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, APIError{
					Code:    ErrCodeSessionExpired,
					Message: "Token 无效或已过期",
				})
			case errors.Is(err, session.ErrUserDisabled):
				c.AbortWithStatusJSON(http.StatusForbidden, APIError{
					Code:    ErrCodeUserDisabled,
					Message: "账户已被禁用",
				})
			default:
				logrus.WithError(err).Error("failed to resolve session")
				c.AbortWithStatusJSON(http.StatusInternalServerError, APIError{
					Code:    ErrCodeInternalError,
					Message: "验证用户失败",
				})
			}
			return
		}

		c.Set(currentUserContextKey, profile)
		c.Next()
	}
}

// OptionalAuthMiddleware 尽力解析访问者身份，但不拒绝匿名请求。
// 工具目录对游客开放，条目的锁定状态依赖访问者身份。
func (h *HTTPHandler) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		profile, err := h.sessions.Resolve(ctx, token)
		if err != nil {
			// 带了坏令牌按匿名处理，目录本身仍可浏览
			c.Next()
			return
		}

		c.Set(currentUserContextKey, profile)
		c.Next()
	}
}

// RequireAdmin 管理员权限守卫中间件
func (h *HTTPHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || user.Role != entity.UserRoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, APIError{
				Code:    ErrCodeForbidden,
				Message: "需要管理员权限",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser 从上下文获取当前认证用户，匿名请求返回 nil。
func CurrentUser(c *gin.Context) *entity.UserProfile {
	value, exists := c.Get(currentUserContextKey)
	if !exists {
		return nil
	}
	profile, ok := value.(*entity.UserProfile)
	if !ok {
		return nil
	}
	return profile
}
