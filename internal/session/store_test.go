package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pudding/internal/auth"
	"pudding/internal/entity"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type fakeRepo struct {
	users   map[uint]*entity.DbUser
	nextID  uint
	getByID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[uint]*entity.DbUser), nextID: 1}
}

func (f *fakeRepo) GetUserByID(_ context.Context, id uint) (*entity.DbUser, error) {
	f.getByID++
	if u, ok := f.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByEmail(_ context.Context, email string) (*entity.DbUser, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateUser(_ context.Context, user *entity.DbUser) error {
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func newTestStore(t *testing.T) (*Store, *fakeRepo, *auth.Manager) {
	t.Helper()
	manager, err := auth.NewManager("test-secret", "pudding", time.Hour)
	if err != nil {
		t.Fatalf("创建 JWT 管理器失败: %v", err)
	}
	repo := newFakeRepo()
	return NewStore(repo, manager), repo, manager
}

func issueToken(t *testing.T, manager *auth.Manager, user *entity.DbUser) string {
	t.Helper()
	token, _, err := manager.GenerateToken(user)
	if err != nil {
		t.Fatalf("签发令牌失败: %v", err)
	}
	return token
}

// issueExternalToken 模拟历史托管认证服务签发的令牌：
// 同一个密钥，但 claims 里只有邮箱，没有本库的用户行 ID。
func issueExternalToken(t *testing.T, email string) string {
	t.Helper()
	now := time.Now().UTC()
	claims := auth.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pudding",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("签发外部令牌失败: %v", err)
	}
	return signed
}

func TestResolve_命中缓存不再查库(t *testing.T) {
	store, repo, manager := newTestStore(t)
	ctx := context.Background()

	user := &entity.DbUser{Email: "a@b.com", Role: entity.UserRoleVIP, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}
	token := issueToken(t, manager, user)

	first, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("首次解析失败: %v", err)
	}
	if !first.IsPremium {
		t.Fatal("vip 角色应派生出 is_premium")
	}

	queriesAfterFirst := repo.getByID
	if _, err := store.Resolve(ctx, token); err != nil {
		t.Fatalf("二次解析失败: %v", err)
	}
	if repo.getByID != queriesAfterFirst {
		t.Fatalf("缓存命中后不应再查库: %d -> %d", queriesAfterFirst, repo.getByID)
	}
}

func TestResolve_无效令牌(t *testing.T) {
	store, _, _ := newTestStore(t)

	if _, err := store.Resolve(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("期望 ErrInvalidToken, got %v", err)
	}
	if _, err := store.Resolve(context.Background(), "  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("空令牌也应返回 ErrInvalidToken, got %v", err)
	}
}

func TestResolve_外部令牌首次访问时补建(t *testing.T) {
	store, repo, _ := newTestStore(t)
	ctx := context.Background()

	// 外部签发的令牌没有行 ID，按邮箱补建（历史账号迁移）
	token := issueExternalToken(t, "ghost@b.com")

	profile, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if profile.Role != entity.UserRoleUser {
		t.Fatalf("补建账号应为普通角色, got %q", profile.Role)
	}
	if _, err := repo.GetUserByEmail(ctx, "ghost@b.com"); err != nil {
		t.Fatalf("补建的行应当落库: %v", err)
	}

	// 再次访问命中已补建的行，不再重建
	again, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("二次解析失败: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("补建只应发生一次: %d vs %d", profile.ID, again.ID)
	}
}

func TestResolve_已删除账号的令牌作废(t *testing.T) {
	store, repo, manager := newTestStore(t)
	ctx := context.Background()

	user := &entity.DbUser{Email: "gone@b.com", Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}
	token := issueToken(t, manager, user)

	// 管理员删除账号后缓存同步失效
	delete(repo.users, user.ID)
	store.Invalidate(user.ID)

	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("删除后的令牌应作废, got %v", err)
	}
	// 不应按邮箱把账号复活出来
	if _, err := repo.GetUserByEmail(ctx, "gone@b.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("删除的账号不应被补建: %v", err)
	}
}

func TestResolve_禁用账号被拒(t *testing.T) {
	store, repo, manager := newTestStore(t)
	ctx := context.Background()

	user := &entity.DbUser{Email: "off@b.com", Role: entity.UserRoleUser, IsActive: false}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}
	token := issueToken(t, manager, user)

	if _, err := store.Resolve(ctx, token); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("期望 ErrUserDisabled, got %v", err)
	}
}

func TestInvalidate_角色升级后缓存刷新(t *testing.T) {
	store, repo, manager := newTestStore(t)
	ctx := context.Background()

	user := &entity.DbUser{Email: "up@b.com", Role: entity.UserRoleUser, IsActive: true}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("准备用户失败: %v", err)
	}
	token := issueToken(t, manager, user)

	before, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if before.IsPremium {
		t.Fatal("升级前不应是付费用户")
	}

	repo.users[user.ID].Role = entity.UserRoleVIP
	store.Invalidate(user.ID)

	after, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("失效后解析失败: %v", err)
	}
	if !after.IsPremium {
		t.Fatal("失效后应读到升级后的角色")
	}
}
