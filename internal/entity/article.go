package entity

import "time"

// DbArticle represents a published article. Content is markdown text;
// rendering happens client side.
type DbArticle struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Title      string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Excerpt    string    `gorm:"column:excerpt;type:varchar(512)" json:"excerpt"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	CoverImage string    `gorm:"column:cover_image;type:varchar(512)" json:"cover_image"`
	Category   string    `gorm:"column:category;type:varchar(64);index" json:"category"`
	AuthorID   uint      `gorm:"column:author_id;index" json:"author_id"`
}

// TableName 指定表名。
func (DbArticle) TableName() string {
	return "articles"
}

// ArticleQuery supports listing articles with pagination and a category filter.
type ArticleQuery struct {
	BaseParams
	Category string `json:"category" form:"category" query:"category"`
	Keyword  string `json:"keyword" form:"keyword" query:"keyword"`
}

type ArticleCreateRequest struct {
	Title      string `json:"title"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
	Category   string `json:"category"`
}

type ArticleUpdateRequest struct {
	Title      *string `json:"title,omitempty"`
	Excerpt    *string `json:"excerpt,omitempty"`
	Content    *string `json:"content,omitempty"`
	CoverImage *string `json:"cover_image,omitempty"`
	Category   *string `json:"category,omitempty"`
}

type ArticleListResponse struct {
	Articles []DbArticle `json:"articles"`
	Meta     *Meta       `json:"meta"`
}

type CategoryListResponse struct {
	Categories []string `json:"categories"`
}
