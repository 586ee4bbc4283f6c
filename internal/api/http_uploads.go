package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"pudding/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// 上传限制
const (
	maxUploadBytes = 8 << 20 // 8 MiB
)

var allowedUploadCategories = map[string]struct{}{
	"avatar": {},
	"cover":  {},
}

var allowedImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

// UploadFile 接收 multipart 图片上传（头像、文章封面），
// 存入配置的存储后端并返回可访问的公共 URL。
func (h *HTTPHandler) UploadFile(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	category := storage.SanitizeToken(c.PostForm("category"))
	if _, ok := allowedUploadCategories[category]; !ok {
		BadRequest(c, ErrCodeInvalidRequest, "category must be avatar or cover")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		MissingField(c, "file")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		BadRequest(c, ErrCodeInvalidRequest, "file too large")
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if _, ok := allowedImageExtensions[ext]; !ok {
		BadRequest(c, ErrCodeInvalidRequest, "unsupported file type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded file")
		InternalError(c, "failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded file")
		InternalError(c, "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		BadRequest(c, ErrCodeInvalidRequest, "file too large")
		return
	}
	if len(data) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "empty file")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	key, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  category,
		Extension: ext,
		BaseName:  uuid.NewString(),
	})
	if err != nil {
		logger := logrus.WithError(err).WithFields(logrus.Fields{
			"category": category,
			"user_id":  user.ID,
		})
		switch {
		case errors.Is(err, storage.ErrBucketNotFound):
			logger.Warn("upload failed: bucket missing")
			ErrorResponse(c, http.StatusBadGateway, ErrCodeBucketNotFound, "存储桶不存在，请先在控制台创建")
		case errors.Is(err, storage.ErrAccessDenied):
			logger.Warn("upload failed: storage access denied")
			ErrorResponse(c, http.StatusBadGateway, ErrCodeStorageForbidden, "存储凭证无写入权限，请检查策略配置")
		default:
			logger.Error("upload failed")
			InternalError(c, "failed to store upload")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key": key,
		"url": h.publicURL(key),
	})
}
