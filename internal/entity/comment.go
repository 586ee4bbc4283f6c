package entity

import "time"

// DbComment represents a stored comment. Storage is flat: a reply carries
// the id of its parent, and the threaded shape is rebuilt at read time.
type DbComment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ArticleID uint      `gorm:"column:article_id;index;not null" json:"article_id"`
	UserID    *uint     `gorm:"column:user_id;index" json:"user_id"`
	UserName  string    `gorm:"column:user_name;type:varchar(255)" json:"user_name"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	ParentID  *uint     `gorm:"column:parent_id;index" json:"parent_id"`
}

// TableName 指定表名。
func (DbComment) TableName() string {
	return "comments"
}

// CommentNode 是视图层的评论节点：评论本身加上它的回复序列。
// Replies 中的节点同样携带自己的回复，深度仅受实际回复链限制。
type CommentNode struct {
	DbComment
	Replies []*CommentNode `json:"replies"`
}

type CommentCreateRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type CommentListResponse struct {
	Comments []DbComment    `json:"comments"`
	Thread   []*CommentNode `json:"thread"`
}
