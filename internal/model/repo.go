package model

import (
	"context"

	"pudding/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	ListUsers(ctx context.Context, params *entity.UserQuery) ([]entity.DbUser, *entity.Meta, error)
	DeleteUser(ctx context.Context, id uint) error
	CountUsers(ctx context.Context) (int64, error)

	// 文章
	CreateArticle(ctx context.Context, article *entity.DbArticle) error
	UpdateArticle(ctx context.Context, id uint, updates map[string]interface{}) error
	GetArticle(ctx context.Context, id uint) (*entity.DbArticle, error)
	ListArticles(ctx context.Context, params *entity.ArticleQuery) ([]entity.DbArticle, *entity.Meta, error)
	DeleteArticle(ctx context.Context, id uint) error
	ListArticleCategories(ctx context.Context) ([]string, error)
	CountArticles(ctx context.Context) (int64, error)

	// 评论（平铺存储，楼中楼由视图层重建）
	CreateComment(ctx context.Context, comment *entity.DbComment) error
	GetComment(ctx context.Context, id uint) (*entity.DbComment, error)
	ListCommentsByArticle(ctx context.Context, articleID uint) ([]entity.DbComment, error)
	DeleteCommentTree(ctx context.Context, id uint) (int64, error)
	CountComments(ctx context.Context) (int64, error)

	// 工具目录
	CreateTool(ctx context.Context, tool *entity.DbTool) error
	UpdateTool(ctx context.Context, id string, updates map[string]interface{}) error
	GetTool(ctx context.Context, id string) (*entity.DbTool, error)
	ListTools(ctx context.Context, includeInactive bool) ([]entity.DbTool, error)
	DeleteTool(ctx context.Context, id string) error
	CountTools(ctx context.Context) (int64, error)
}
