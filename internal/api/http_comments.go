package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pudding/internal/entity"
	"pudding/internal/thread"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ListComments 返回文章的评论：平铺列表和楼中楼两种形态一起给前端。
func (h *HTTPHandler) ListComments(c *gin.Context) {
	articleID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeArticleNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("article_id", articleID).Error("failed to load article")
		InternalError(c, "failed to load article")
		return
	}

	comments, err := h.repo.ListCommentsByArticle(ctx, articleID)
	if err != nil {
		logrus.WithError(err).WithField("article_id", articleID).Error("failed to list comments")
		InternalError(c, "failed to list comments")
		return
	}
	if comments == nil {
		comments = []entity.DbComment{}
	}

	c.JSON(http.StatusOK, entity.CommentListResponse{
		Comments: comments,
		Thread:   thread.BuildForest(comments),
	})
}

// CreateComment 发表评论或回复。需要登录。
// singleflight 按 用户:文章:父级 去重，双击提交只会落库一次。
func (h *HTTPHandler) CreateComment(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	articleID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req entity.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		MissingField(c, "content")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repo.GetArticle(ctx, articleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeArticleNotFound, "文章不存在")
			return
		}
		logrus.WithError(err).WithField("article_id", articleID).Error("failed to load article")
		InternalError(c, "failed to load article")
		return
	}

	if req.ParentID != nil {
		parent, err := h.repo.GetComment(ctx, *req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, ErrCodeCommentNotFound, "父评论不存在")
				return
			}
			logrus.WithError(err).WithField("comment_id", *req.ParentID).Error("failed to load parent comment")
			InternalError(c, "failed to load parent comment")
			return
		}
		if parent.ArticleID != articleID {
			BadRequest(c, ErrCodeInvalidRequest, "父评论不属于该文章")
			return
		}
	}

	parentKey := uint(0)
	if req.ParentID != nil {
		parentKey = *req.ParentID
	}
	dedupKey := fmt.Sprintf("%d:%d:%d", user.ID, articleID, parentKey)

	userID := user.ID
	result, err, _ := h.commentGuard.Do(dedupKey, func() (interface{}, error) {
		comment := &entity.DbComment{
			ArticleID: articleID,
			UserID:    &userID,
			UserName:  user.DisplayName,
			Content:   content,
			ParentID:  req.ParentID,
		}
		if err := h.repo.CreateComment(ctx, comment); err != nil {
			return nil, err
		}
		return comment, nil
	})
	if err != nil {
		logrus.WithError(err).WithField("article_id", articleID).Error("failed to create comment")
		InternalError(c, "failed to create comment")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// DeleteComment 删除评论及整棵回复子树。作者本人或管理员可删。
func (h *HTTPHandler) DeleteComment(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	commentID, ok := parseUintParam(c, "comment_id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	comment, err := h.repo.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCommentNotFound, "评论不存在")
			return
		}
		logrus.WithError(err).WithField("comment_id", commentID).Error("failed to load comment")
		InternalError(c, "failed to load comment")
		return
	}

	isAuthor := comment.UserID != nil && *comment.UserID == user.ID
	if !isAuthor && user.Role != entity.UserRoleAdmin {
		Forbidden(c, "只能删除自己的评论")
		return
	}

	deleted, err := h.repo.DeleteCommentTree(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCommentNotFound, "评论不存在")
			return
		}
		logrus.WithError(err).WithField("comment_id", commentID).Error("failed to delete comment tree")
		InternalError(c, "failed to delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
