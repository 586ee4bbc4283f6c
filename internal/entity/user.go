package entity

import "time"

const (
	UserRoleAdmin = "admin"
	UserRoleVIP   = "vip"
	UserRoleUser  = "user"
)

// DbUser represents a persisted user account.
//
// IsPremiumUser is the legacy premium flag from the first revision of the
// schema (role was then only admin|user). New code never writes it; rows
// created by the old revision may still carry it, so it is read as a
// compatibility input when deriving premium access.
type DbUser struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Email         string    `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	DisplayName   string    `gorm:"column:display_name;type:varchar(255)" json:"display_name"`
	AvatarURL     string    `gorm:"column:avatar_url;type:varchar(512)" json:"avatar_url"`
	Role          string    `gorm:"column:role;type:varchar(50);index;not null" json:"role"`
	IsPremiumUser bool      `gorm:"column:is_premium_user;not null;default:false" json:"is_premium_user"`
	IsActive      bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// UserProfile 是对外暴露的规范化用户资料。
// IsPremium 是派生字段：由角色或历史布尔标记在边界处统一计算，
// 下游（包括权限判定）不再关心两种历史编码的差异。
type UserProfile struct {
	ID          uint      `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Role        string    `json:"role"`
	IsPremium   bool      `json:"is_premium"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserQuery supports listing users with pagination.
type UserQuery struct {
	BaseParams
	Role    string `json:"role" form:"role" query:"role"`
	Keyword string `json:"keyword" form:"keyword" query:"keyword"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

type ProfileUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

type UserCreateRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role" binding:"required"`
	IsActive    *bool  `json:"is_active"`
}

type UserUpdateRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Role        *string `json:"role,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type UserListResponse struct {
	Users []UserProfile `json:"users"`
	Meta  *Meta         `json:"meta"`
}
