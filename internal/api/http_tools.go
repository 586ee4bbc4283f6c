package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pudding/internal/entitlement"
	"pudding/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/russross/blackfriday/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// decorateTool 计算目录条目的锁定状态和可执行动作。
// 未登录先去认证；已登录但未解锁付费工具引导升级；其余可直接使用。
func decorateTool(user *entity.UserProfile, tool entity.DbTool) entity.ToolCatalogItem {
	item := entity.ToolCatalogItem{DbTool: tool}

	switch {
	case user == nil:
		item.Locked = true
		item.PremiumLocked = tool.IsPremium
		item.Action = entity.ToolActionLogin
	case !entitlement.HasAccess(user, &tool):
		item.Locked = true
		item.PremiumLocked = true
		item.Action = entity.ToolActionUpgrade
	case strings.TrimSpace(tool.ExternalURL) != "":
		item.Action = entity.ToolActionExternal
	default:
		item.Action = entity.ToolActionLaunch
	}

	return item
}

// ListTools 工具目录，游客可浏览，锁定状态按访问者身份计算。
func (h *HTTPHandler) ListTools(c *gin.Context) {
	user := CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tools, err := h.repo.ListTools(ctx, false)
	if err != nil {
		logrus.WithError(err).Error("failed to list tools")
		InternalError(c, "failed to list tools")
		return
	}

	items := make([]entity.ToolCatalogItem, 0, len(tools))
	for _, tool := range tools {
		items = append(items, decorateTool(user, tool))
	}

	c.JSON(http.StatusOK, entity.ToolListResponse{Tools: items})
}

// GetToolDetail 工具详情，带与目录一致的锁定状态。
func (h *HTTPHandler) GetToolDetail(c *gin.Context) {
	user := CurrentUser(c)

	toolID := strings.TrimSpace(c.Param("id"))
	if toolID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tool id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tool, err := h.repo.GetTool(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeToolNotFound, "工具不存在")
			return
		}
		logrus.WithError(err).WithField("tool_id", toolID).Error("failed to load tool")
		InternalError(c, "failed to load tool")
		return
	}

	if !tool.IsActive {
		NotFound(c, ErrCodeToolNotFound, "工具不存在")
		return
	}

	c.JSON(http.StatusOK, decorateTool(user, *tool))
}

// requireToolAccess 加载工具并做使用前的访问判定。
// 返回 nil 时响应已写出，调用方直接 return。
func (h *HTTPHandler) requireToolAccess(c *gin.Context, toolID string) *entity.DbTool {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tool, err := h.repo.GetTool(ctx, toolID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeToolNotFound, "工具不存在")
			return nil
		}
		logrus.WithError(err).WithField("tool_id", toolID).Error("failed to load tool")
		InternalError(c, "failed to load tool")
		return nil
	}

	if !tool.IsActive {
		ErrorResponse(c, http.StatusForbidden, ErrCodeToolDisabled, "工具已下架")
		return nil
	}

	if !entitlement.HasAccess(user, tool) {
		ErrorResponse(c, http.StatusForbidden, ErrCodePremiumRequired, "需要升级 PRO 才能使用该工具")
		return nil
	}

	return tool
}

type markdownRenderRequest struct {
	Markdown string `json:"markdown"`
}

// RenderMarkdown Markdown 工具的服务端渲染。
func (h *HTTPHandler) RenderMarkdown(c *gin.Context) {
	if h.requireToolAccess(c, "markdown") == nil {
		return
	}

	var req markdownRenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	html := blackfriday.Run([]byte(req.Markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions))

	c.JSON(http.StatusOK, gin.H{"html": string(html)})
}

type jsonFormatRequest struct {
	JSON   string `json:"json"`
	Indent string `json:"indent"`
}

// FormatJSON JSON 格式化工具。非法输入返回带位置信息的 400。
func (h *HTTPHandler) FormatJSON(c *gin.Context) {
	if h.requireToolAccess(c, "json-format") == nil {
		return
	}

	var req jsonFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	if strings.TrimSpace(req.JSON) == "" {
		MissingField(c, "json")
		return
	}

	indent := req.Indent
	if indent == "" {
		indent = "  "
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(req.JSON), "", indent); err != nil {
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid JSON input", gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"formatted": buf.String()})
}

type aiGenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateCopy AI 文案工具，付费工具，走配置的文案服务商。
func (h *HTTPHandler) GenerateCopy(c *gin.Context) {
	if h.requireToolAccess(c, "ai-writer") == nil {
		return
	}

	if h.textService == nil {
		ServiceUnavailable(c, "文案服务未配置")
		return
	}

	var req aiGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		MissingField(c, "prompt")
		return
	}

	// 生成可能要跑十几秒，给比普通查询宽得多的窗口
	ctx, cancel := context.WithTimeout(c.Request.Context(), 120*time.Second)
	defer cancel()

	text, err := h.textService.Generate(ctx, prompt)
	if err != nil {
		logrus.WithError(err).Error("failed to generate copy")
		ErrorResponse(c, http.StatusBadGateway, ErrCodeGenerationFailed, "文案生成失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text, "provider": h.textService.ProviderID()})
}

// CreateTool 管理员新增工具。
func (h *HTTPHandler) CreateTool(c *gin.Context) {
	var req entity.ToolCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	id := strings.TrimSpace(req.ID)
	name := strings.TrimSpace(req.Name)
	if id == "" {
		MissingField(c, "id")
		return
	}
	if name == "" {
		MissingField(c, "name")
		return
	}

	tool := &entity.DbTool{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		IconName:    strings.TrimSpace(req.IconName),
		Category:    strings.TrimSpace(req.Category),
		IsPremium:   req.IsPremium,
		Price:       req.Price,
		ExternalURL: strings.TrimSpace(req.ExternalURL),
		IsActive:    true,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateTool(ctx, tool); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			BadRequest(c, ErrCodeInvalidRequest, "tool id already exists")
			return
		}
		logrus.WithError(err).Error("failed to create tool")
		InternalError(c, "failed to create tool")
		return
	}

	c.JSON(http.StatusCreated, tool)
}

// UpdateTool 管理员修改工具，含付费标记切换和上下架。
func (h *HTTPHandler) UpdateTool(c *gin.Context) {
	toolID := strings.TrimSpace(c.Param("id"))
	if toolID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tool id")
		return
	}

	var req entity.ToolUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			MissingField(c, "name")
			return
		}
		updates["name"] = trimmed
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.IconName != nil {
		updates["icon_name"] = strings.TrimSpace(*req.IconName)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.IsPremium != nil {
		updates["is_premium"] = *req.IsPremium
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.ExternalURL != nil {
		updates["external_url"] = strings.TrimSpace(*req.ExternalURL)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateTool(ctx, toolID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeToolNotFound, "工具不存在")
			return
		}
		logrus.WithError(err).WithField("tool_id", toolID).Error("failed to update tool")
		InternalError(c, "failed to update tool")
		return
	}

	tool, err := h.repo.GetTool(ctx, toolID)
	if err != nil {
		logrus.WithError(err).WithField("tool_id", toolID).Error("failed to reload tool")
		InternalError(c, "failed to reload tool")
		return
	}

	c.JSON(http.StatusOK, tool)
}

// DeleteTool 管理员删除工具。
func (h *HTTPHandler) DeleteTool(c *gin.Context) {
	toolID := strings.TrimSpace(c.Param("id"))
	if toolID == "" {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tool id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteTool(ctx, toolID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeToolNotFound, "工具不存在")
			return
		}
		logrus.WithError(err).WithField("tool_id", toolID).Error("failed to delete tool")
		InternalError(c, "failed to delete tool")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// AdminListTools 管理端全量目录（含下架工具）。
func (h *HTTPHandler) AdminListTools(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tools, err := h.repo.ListTools(ctx, true)
	if err != nil {
		logrus.WithError(err).Error("failed to list tools")
		InternalError(c, "failed to list tools")
		return
	}
	if tools == nil {
		tools = []entity.DbTool{}
	}

	c.JSON(http.StatusOK, gin.H{"tools": tools})
}
