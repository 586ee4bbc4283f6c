package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"pudding/internal/entity"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
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
	// 内存库绑定在单个连接上，多连接会各自看到空库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(&entity.DbUser{}, &entity.DbArticle{}, &entity.DbComment{}, &entity.DbTool{}); err != nil {
		t.Fatalf("迁移表结构失败: %v", err)
	}

	return NewGormRepository(db)
}

func uintPtr(v uint) *uint { return &v }

func mustCreateComment(t *testing.T, repo *GormRepository, articleID uint, parentID *uint, content string) *entity.DbComment {
	t.Helper()
	c := &entity.DbComment{
		ArticleID: articleID,
		UserName:  "访客",
		Content:   content,
		ParentID:  parentID,
	}
	if err := repo.CreateComment(context.Background(), c); err != nil {
		t.Fatalf("创建评论失败: %v", err)
	}
	return c
}

func TestListCommentsByArticle_按时间升序(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := mustCreateComment(t, repo, 1, nil, "一楼")
	second := mustCreateComment(t, repo, 1, nil, "二楼")
	mustCreateComment(t, repo, 2, nil, "别的文章")

	comments, err := repo.ListCommentsByArticle(ctx, 1)
	if err != nil {
		t.Fatalf("查询评论失败: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("期望 2 条评论，实际 %d", len(comments))
	}
	if comments[0].ID != first.ID || comments[1].ID != second.ID {
		t.Fatalf("顺序不对: %d, %d", comments[0].ID, comments[1].ID)
	}
}

func TestDeleteCommentTree_级联删除子树(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	root := mustCreateComment(t, repo, 1, nil, "根评论")
	child := mustCreateComment(t, repo, 1, uintPtr(root.ID), "回复根")
	mustCreateComment(t, repo, 1, uintPtr(child.ID), "回复的回复")
	survivor := mustCreateComment(t, repo, 1, nil, "无关评论")

	deleted, err := repo.DeleteCommentTree(ctx, root.ID)
	if err != nil {
		t.Fatalf("删除评论树失败: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("期望删除 3 条，实际 %d", deleted)
	}

	remaining, err := repo.ListCommentsByArticle(ctx, 1)
	if err != nil {
		t.Fatalf("查询剩余评论失败: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != survivor.ID {
		t.Fatalf("无关评论应当保留, got %+v", remaining)
	}
}

func TestDeleteCommentTree_叶子节点只删自己(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	root := mustCreateComment(t, repo, 1, nil, "根评论")
	leaf := mustCreateComment(t, repo, 1, uintPtr(root.ID), "叶子回复")

	deleted, err := repo.DeleteCommentTree(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("删除叶子失败: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("期望删除 1 条，实际 %d", deleted)
	}

	if _, err := repo.GetComment(ctx, root.ID); err != nil {
		t.Fatalf("根评论不应被删除: %v", err)
	}
}

func TestDeleteCommentTree_不存在返回NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.DeleteCommentTree(context.Background(), 404)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望 ErrRecordNotFound, got %v", err)
	}
}

func TestToolRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tool := &entity.DbTool{
		ID:        "markdown",
		Name:      "Markdown 编辑器",
		Category:  "开发",
		IsPremium: false,
		IsActive:  true,
	}
	if err := repo.CreateTool(ctx, tool); err != nil {
		t.Fatalf("创建工具失败: %v", err)
	}

	if err := repo.UpdateTool(ctx, "markdown", map[string]interface{}{"is_premium": true, "price": 9.9}); err != nil {
		t.Fatalf("更新工具失败: %v", err)
	}

	got, err := repo.GetTool(ctx, "markdown")
	if err != nil {
		t.Fatalf("查询工具失败: %v", err)
	}
	if !got.IsPremium || got.Price != 9.9 {
		t.Fatalf("更新未生效: %+v", got)
	}

	if err := repo.UpdateTool(ctx, "markdown", map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("下架工具失败: %v", err)
	}

	visible, err := repo.ListTools(ctx, false)
	if err != nil {
		t.Fatalf("查询目录失败: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("下架工具不应出现在目录里, got %d", len(visible))
	}

	all, err := repo.ListTools(ctx, true)
	if err != nil {
		t.Fatalf("查询全量目录失败: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("全量目录应包含下架工具, got %d", len(all))
	}
}
