package sql

import (
	"context"
	"fmt"
	"strings"

	"pudding/internal/entity"

	"gorm.io/gorm"
)

// CreateTool persists a new tool record.
func (r *GormRepository) CreateTool(ctx context.Context, tool *entity.DbTool) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return r.db.WithContext(ctx).Create(tool).Error
}

// UpdateTool updates tool fields by slug.
func (r *GormRepository) UpdateTool(ctx context.Context, id string, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid tool id")
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Model(&entity.DbTool{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetTool loads a tool by slug.
func (r *GormRepository) GetTool(ctx context.Context, id string) (*entity.DbTool, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("invalid tool id")
	}
	var tool entity.DbTool
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tool).Error; err != nil {
		return nil, err
	}
	return &tool, nil
}

// ListTools returns the tool catalog in insertion order.
func (r *GormRepository) ListTools(ctx context.Context, includeInactive bool) ([]entity.DbTool, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbTool{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var tools []entity.DbTool
	if err := query.Order("created_at ASC, id ASC").Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

// DeleteTool removes a tool by slug.
func (r *GormRepository) DeleteTool(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("invalid tool id")
	}
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.DbTool{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTools returns total tool count.
func (r *GormRepository) CountTools(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.DbTool{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
