package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pudding/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

// ListArticles 文章列表，游客可见。支持分类过滤、关键字搜索和分页。
func (h *HTTPHandler) ListArticles(c *gin.Context) {
	var params entity.ArticleQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	articles, meta, err := h.repo.ListArticles(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list articles")
		InternalError(c, "failed to list articles")
		return
	}
	if articles == nil {
		articles = []entity.DbArticle{}
	}

	c.JSON(http.StatusOK, entity.ArticleListResponse{Articles: articles, Meta: meta})
}

// ListArticleCategories 返回当前在用的分类集合，用于文章列表页的过滤栏。
func (h *HTTPHandler) ListArticleCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	categories, err := h.repo.ListArticleCategories(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list categories")
		InternalError(c, "failed to list categories")
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{Categories: categories})
}

func (h *HTTPHandler) GetArticle(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	article, err := h.repo.GetArticle(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeArticleNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("article_id", id).Error("failed to load article")
		InternalError(c, "failed to load article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// CreateArticle 管理员发布文章。标题和正文必填，校验在落库前完成。
func (h *HTTPHandler) CreateArticle(c *gin.Context) {
	user := CurrentUser(c)

	var req entity.ArticleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" {
		MissingField(c, "title")
		return
	}
	if content == "" {
		MissingField(c, "content")
		return
	}

	article := &entity.DbArticle{
		Title:      title,
		Excerpt:    strings.TrimSpace(req.Excerpt),
		Content:    content,
		CoverImage: strings.TrimSpace(req.CoverImage),
		Category:   strings.TrimSpace(req.Category),
	}
	if user != nil {
		article.AuthorID = user.ID
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateArticle(ctx, article); err != nil {
		logrus.WithError(err).Error("failed to create article")
		InternalError(c, "failed to create article")
		return
	}

	c.JSON(http.StatusCreated, article)
}

func (h *HTTPHandler) UpdateArticle(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req entity.ArticleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" {
			MissingField(c, "title")
			return
		}
		updates["title"] = trimmed
	}
	if req.Content != nil {
		trimmed := strings.TrimSpace(*req.Content)
		if trimmed == "" {
			MissingField(c, "content")
			return
		}
		updates["content"] = trimmed
	}
	if req.Excerpt != nil {
		updates["excerpt"] = strings.TrimSpace(*req.Excerpt)
	}
	if req.CoverImage != nil {
		updates["cover_image"] = strings.TrimSpace(*req.CoverImage)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}

	if len(updates) == 0 {
		BadRequest(c, ErrCodeInvalidRequest, "nothing to update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateArticle(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeArticleNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("article_id", id).Error("failed to update article")
		InternalError(c, "failed to update article")
		return
	}

	article, err := h.repo.GetArticle(ctx, id)
	if err != nil {
		logrus.WithError(err).WithField("article_id", id).Error("failed to reload article")
		InternalError(c, "failed to reload article")
		return
	}

	c.JSON(http.StatusOK, article)
}

// DeleteArticle 删除文章，附带清掉它的全部评论。
func (h *HTTPHandler) DeleteArticle(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeArticleNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("article_id", id).Error("failed to delete article")
		InternalError(c, "failed to delete article")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
