package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pudding/internal/config"
	"pudding/internal/entity"
	"pudding/internal/model"
	modelsql "pudding/internal/model/sql"
	"pudding/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestHandler(t *testing.T) (*HTTPHandler, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
	})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.Migrate(db); err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}

	repo := modelsql.NewGormRepository(db)

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建本地存储失败: %v", err)
	}

	cfg := config.Config{
		JWTSecret:            "test-secret",
		JWTIssuer:            "pudding",
		JWTExpirationMinutes: 60,
		VIPSettleDelayMS:     10,
	}

	handler, err := NewHTTPHandler(cfg, repo, store, nil)
	if err != nil {
		t.Fatalf("创建 HTTP 处理器失败: %v", err)
	}

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", handler.Register)
	api.POST("/auth/login", handler.Login)
	api.GET("/auth/me", handler.AuthMiddleware(), handler.Me)
	api.GET("/articles/:id/comments", handler.ListComments)
	api.GET("/tools", handler.OptionalAuthMiddleware(), handler.ListTools)

	authed := api.Group("")
	authed.Use(handler.AuthMiddleware())
	authed.POST("/articles/:id/comments", handler.CreateComment)
	authed.DELETE("/comments/:comment_id", handler.DeleteComment)
	authed.POST("/vip/checkout", handler.StartVIPCheckout)
	authed.GET("/vip/checkout/:id", handler.GetVIPCheckout)

	admin := api.Group("")
	admin.Use(handler.AuthMiddleware(), handler.RequireAdmin())
	admin.POST("/articles", handler.CreateArticle)

	return handler, r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("序列化请求失败: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r *gin.Engine, email string) entity.AuthResponse {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("注册 %s 失败: %d %s", email, w.Code, w.Body.String())
	}
	var resp entity.AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析注册响应失败: %v", err)
	}
	return resp
}

func TestRegister_首个用户是管理员(t *testing.T) {
	_, r := newTestHandler(t)

	first := registerUser(t, r, "first@b.com")
	if first.User.Role != entity.UserRoleAdmin {
		t.Fatalf("首个用户应为管理员, got %q", first.User.Role)
	}

	second := registerUser(t, r, "second@b.com")
	if second.User.Role != entity.UserRoleUser {
		t.Fatalf("后续用户应为普通角色, got %q", second.User.Role)
	}

	// 重复邮箱被拒
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "first@b.com",
		"password": "password123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("重复注册应返回 400, got %d", w.Code)
	}
}

func TestComments_发表与楼中楼(t *testing.T) {
	_, r := newTestHandler(t)

	admin := registerUser(t, r, "admin@b.com")
	user := registerUser(t, r, "user@b.com")

	w := doJSON(t, r, http.MethodPost, "/api/articles", admin.Token, gin.H{
		"title":   "第一篇",
		"content": "正文内容",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("发布文章失败: %d %s", w.Code, w.Body.String())
	}
	var article entity.DbArticle
	if err := json.Unmarshal(w.Body.Bytes(), &article); err != nil {
		t.Fatalf("解析文章响应失败: %v", err)
	}

	// 匿名不能发评论
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), "", gin.H{"content": "匿名"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("匿名评论应返回 401, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), user.Token, gin.H{"content": "一楼"})
	if w.Code != http.StatusCreated {
		t.Fatalf("发评论失败: %d %s", w.Code, w.Body.String())
	}
	var root entity.DbComment
	if err := json.Unmarshal(w.Body.Bytes(), &root); err != nil {
		t.Fatalf("解析评论响应失败: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), admin.Token, gin.H{
		"content":   "回复一楼",
		"parent_id": root.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("回复失败: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/articles/%d/comments", article.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("查询评论失败: %d", w.Code)
	}
	var list entity.CommentListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("解析评论列表失败: %v", err)
	}
	if len(list.Comments) != 2 {
		t.Fatalf("平铺列表应有 2 条, got %d", len(list.Comments))
	}
	if len(list.Thread) != 1 {
		t.Fatalf("楼中楼应有 1 个根, got %d", len(list.Thread))
	}
	if len(list.Thread[0].Replies) != 1 {
		t.Fatalf("根评论应有 1 条回复, got %d", len(list.Thread[0].Replies))
	}

	// 指向不存在的父评论被拒
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/articles/%d/comments", article.ID), user.Token, gin.H{
		"content":   "孤儿回复",
		"parent_id": 9999,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("坏父级应返回 404, got %d", w.Code)
	}
}

func TestComments_删除权限与级联(t *testing.T) {
	_, r := newTestHandler(t)

	admin := registerUser(t, r, "admin@b.com")
	alice := registerUser(t, r, "alice@b.com")
	bob := registerUser(t, r, "bob@b.com")

	w := doJSON(t, r, http.MethodPost, "/api/articles", admin.Token, gin.H{
		"title":   "讨论帖",
		"content": "正文",
	})
	var article entity.DbArticle
	if err := json.Unmarshal(w.Body.Bytes(), &article); err != nil {
		t.Fatalf("解析文章失败: %v", err)
	}

	commentPath := fmt.Sprintf("/api/articles/%d/comments", article.ID)

	w = doJSON(t, r, http.MethodPost, commentPath, alice.Token, gin.H{"content": "alice 的评论"})
	var root entity.DbComment
	if err := json.Unmarshal(w.Body.Bytes(), &root); err != nil {
		t.Fatalf("解析评论失败: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, commentPath, bob.Token, gin.H{"content": "bob 的回复", "parent_id": root.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("bob 回复失败: %d", w.Code)
	}

	// bob 不能删 alice 的评论
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), bob.Token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("非作者删除应返回 403, got %d", w.Code)
	}

	// alice 删自己的根评论，连带 bob 的回复一起消失
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/comments/%d", root.ID), alice.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("作者删除失败: %d %s", w.Code, w.Body.String())
	}
	var result struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("解析删除响应失败: %v", err)
	}
	if result.Deleted != 2 {
		t.Fatalf("级联应删除 2 条, got %d", result.Deleted)
	}

	w = doJSON(t, r, http.MethodGet, commentPath, "", nil)
	var list entity.CommentListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("解析评论列表失败: %v", err)
	}
	if len(list.Comments) != 0 {
		t.Fatalf("评论应全部删除, got %d", len(list.Comments))
	}
}
