package entity

import "time"

// DbTool describes an entry in the tool catalog. The ID doubles as the
// route segment on the client (/tools/:id). Tools with an ExternalURL are
// launched by navigating away instead of rendering an internal view.
type DbTool struct {
	ID          string    `gorm:"primarykey;type:varchar(64)" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Description string    `gorm:"column:description;type:varchar(512)" json:"description"`
	IconName    string    `gorm:"column:icon_name;type:varchar(64)" json:"icon_name"`
	Category    string    `gorm:"column:category;type:varchar(64);index" json:"category"`
	IsPremium   bool      `gorm:"column:is_premium;not null;default:false" json:"is_premium"`
	Price       float64   `gorm:"column:price" json:"price"`
	ExternalURL string    `gorm:"column:external_url;type:varchar(512)" json:"external_url"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName 指定表名。
func (DbTool) TableName() string {
	return "tools"
}

// 目录项的可执行动作，由当前访问者和工具的付费标记共同决定。
const (
	ToolActionLogin    = "login"    // 未登录：先去认证
	ToolActionUpgrade  = "upgrade"  // 已登录但未解锁付费工具
	ToolActionLaunch   = "launch"   // 可直接使用内置工具
	ToolActionExternal = "external" // 可用，但入口是外部链接
)

// ToolCatalogItem 是目录视图返回的工具条目，附带访问判定结果。
type ToolCatalogItem struct {
	DbTool
	Locked        bool   `json:"locked"`
	PremiumLocked bool   `json:"premium_locked"`
	Action        string `json:"action"`
}

type ToolCreateRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IconName    string  `json:"icon_name"`
	Category    string  `json:"category"`
	IsPremium   bool    `json:"is_premium"`
	Price       float64 `json:"price"`
	ExternalURL string  `json:"external_url"`
}

type ToolUpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	IconName    *string  `json:"icon_name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	IsPremium   *bool    `json:"is_premium,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	ExternalURL *string  `json:"external_url,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

type ToolListResponse struct {
	Tools []ToolCatalogItem `json:"tools"`
}
