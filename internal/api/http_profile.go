package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pudding/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UpdateProfile 修改当前登录用户的展示名和头像。
// 两个字段都是可选的，只有携带的字段会被写入。
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
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
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}

	if len(updates) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateUser(ctx, user.ID, updates); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to update profile")
		InternalError(c, "failed to update profile")
		return
	}

	// 缓存里还是旧资料，强制重读
	h.sessions.Invalidate(user.ID)
	profile, err := h.sessions.Refresh(ctx, user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Error("failed to reload profile")
		InternalError(c, "failed to reload profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}
