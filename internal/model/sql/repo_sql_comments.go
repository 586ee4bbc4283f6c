package sql

import (
	"context"
	"fmt"

	"pudding/internal/entity"

	"gorm.io/gorm"
)

// CreateComment persists a new comment.
func (r *GormRepository) CreateComment(ctx context.Context, comment *entity.DbComment) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if comment == nil {
		return fmt.Errorf("comment is nil")
	}
	return r.db.WithContext(ctx).Create(comment).Error
}

// GetComment loads a comment by ID.
func (r *GormRepository) GetComment(ctx context.Context, id uint) (*entity.DbComment, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid comment id")
	}
	var comment entity.DbComment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListCommentsByArticle 按发表时间升序返回文章下的全部评论。
// 稳定排序是楼层树构建的前提，created_at 相同时按 id 再排一次。
func (r *GormRepository) ListCommentsByArticle(ctx context.Context, articleID uint) ([]entity.DbComment, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if articleID == 0 {
		return nil, fmt.Errorf("invalid article id")
	}

	var comments []entity.DbComment
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// DeleteCommentTree 删除一条评论以及它下面的整棵回复子树，返回删除的行数。
// 逐层展开 parent_id，避免依赖数据库的递归 CTE，三种方言都能跑。
func (r *GormRepository) DeleteCommentTree(ctx context.Context, id uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid comment id")
	}

	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := []uint{id}
		frontier := []uint{id}

		for len(frontier) > 0 {
			var children []uint
			if err := tx.Model(&entity.DbComment{}).
				Where("parent_id IN ?", frontier).
				Pluck("id", &children).Error; err != nil {
				return err
			}
			ids = append(ids, children...)
			frontier = children
		}

		result := tx.Where("id IN ?", ids).Delete(&entity.DbComment{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// CountComments returns total comment count.
func (r *GormRepository) CountComments(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbComment{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
