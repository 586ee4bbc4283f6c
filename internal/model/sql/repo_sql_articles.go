package sql

import (
	"context"
	"fmt"
	"strings"

	"pudding/internal/entity"

	"gorm.io/gorm"
)

// CreateArticle persists a new article.
func (r *GormRepository) CreateArticle(ctx context.Context, article *entity.DbArticle) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if article == nil {
		return fmt.Errorf("article is nil")
	}
	return r.db.WithContext(ctx).Create(article).Error
}

// UpdateArticle updates article fields.
func (r *GormRepository) UpdateArticle(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid article id")
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&entity.DbArticle{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetArticle loads an article by ID.
func (r *GormRepository) GetArticle(ctx context.Context, id uint) (*entity.DbArticle, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid article id")
	}
	var article entity.DbArticle
	if err := r.db.WithContext(ctx).First(&article, id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles returns paginated articles, newest first.
func (r *GormRepository) ListArticles(ctx context.Context, params *entity.ArticleQuery) ([]entity.DbArticle, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbArticle{})
	if params != nil {
		if category := strings.TrimSpace(params.Category); category != "" {
			query = query.Where("category = ?", category)
		}
		if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
			kw := "%" + strings.ToLower(keyword) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?", kw, kw)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var articles []entity.DbArticle
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&articles).Error; err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return articles, meta, nil
}

// DeleteArticle removes an article by ID together with its comments.
func (r *GormRepository) DeleteArticle(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid article id")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", id).Delete(&entity.DbComment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entity.DbArticle{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListArticleCategories returns the distinct non-empty categories in use.
func (r *GormRepository) ListArticleCategories(ctx context.Context) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var categories []string
	err := r.db.WithContext(ctx).
		Model(&entity.DbArticle{}).
		Where("category <> ''").
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// CountArticles returns total article count.
func (r *GormRepository) CountArticles(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbArticle{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
