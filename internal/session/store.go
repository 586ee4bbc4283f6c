// Package session 负责把请求携带的令牌换成规范化的用户资料。
// 资料按用户 ID 缓存在内存里，资料或角色变更后需要显式失效。
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pudding/internal/auth"
	"pudding/internal/entitlement"
	"pudding/internal/entity"

	"gorm.io/gorm"
)

// ProfileRepo 是会话解析需要的最小仓库能力。
type ProfileRepo interface {
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	CreateUser(ctx context.Context, user *entity.DbUser) error
}

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrUserDisabled = errors.New("user account is disabled")
)

// Store resolves bearer tokens to user profiles with a small cache in front
// of the repository.
type Store struct {
	repo ProfileRepo
	jwt  *auth.Manager

	mu    sync.Mutex
	cache map[uint]*entity.UserProfile
}

// NewStore 创建会话存储。
func NewStore(repo ProfileRepo, jwtManager *auth.Manager) *Store {
	return &Store{
		repo:  repo,
		jwt:   jwtManager,
		cache: make(map[uint]*entity.UserProfile),
	}
}

// Resolve 校验令牌并返回对应的用户资料。
// 本服务签发的令牌带用户行 ID，行不在了说明账号已被删除，令牌随之作废。
// 只有不带行 ID 的外部签发令牌（历史账号迁移场景）才会按令牌里的
// 邮箱补建一条默认角色的用户记录。
func (s *Store) Resolve(ctx context.Context, token string) (*entity.UserProfile, error) {
	if s == nil || s.repo == nil || s.jwt == nil {
		return nil, fmt.Errorf("session store not initialised")
	}
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	s.mu.Lock()
	cached, ok := s.cache[claims.UserID]
	s.mu.Unlock()
	if ok {
		if !cached.IsActive {
			return nil, ErrUserDisabled
		}
		return cached, nil
	}

	user, err := s.lookupOrProvision(ctx, claims)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	profile := entitlement.Resolve(user)

	s.mu.Lock()
	s.cache[profile.ID] = profile
	s.mu.Unlock()

	return profile, nil
}

func (s *Store) lookupOrProvision(ctx context.Context, claims *auth.Claims) (*entity.DbUser, error) {
	if claims.UserID != 0 {
		user, err := s.repo.GetUserByID(ctx, claims.UserID)
		if err == nil {
			return user, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 行已被管理员删除：不按邮箱复活账号，令牌直接作废
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, ErrInvalidToken
	}

	// 先按邮箱找一次，避免重建已有账号
	if byEmail, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return byEmail, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &entity.DbUser{
		Email:       email,
		DisplayName: claims.Email,
		Role:        entity.UserRoleUser,
		IsActive:    true,
	}
	if err := s.repo.CreateUser(ctx, created); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发首次访问：另一个请求先建好了
			return s.repo.GetUserByEmail(ctx, created.Email)
		}
		return nil, err
	}
	return created, nil
}

// Refresh 重新从数据库加载资料并更新缓存。
func (s *Store) Refresh(ctx context.Context, userID uint) (*entity.UserProfile, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("session store not initialised")
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := entitlement.Resolve(user)

	s.mu.Lock()
	s.cache[userID] = profile
	s.mu.Unlock()

	return profile, nil
}

// Invalidate 在资料编辑、角色变更后丢弃缓存条目。
func (s *Store) Invalidate(userID uint) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}
