package api

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"pudding/internal/auth"
	"pudding/internal/config"
	"pudding/internal/llm"
	"pudding/internal/model"
	"pudding/internal/payment"
	"pudding/internal/session"
	"pudding/internal/storage"

	"golang.org/x/sync/singleflight"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string
	authManager       *auth.Manager
	sessions          *session.Store
	textService       llm.TextService
	payments          *payment.Simulator

	// 评论提交的并发去重：同一用户对同一目标的连击只落库一次
	commentGuard singleflight.Group

	// 首个账号自动成为管理员，计数和建号要原子，否则并发注册会出多个管理员
	registerMu sync.Mutex
}

// NewHTTPHandler 创建 HTTP 处理器实例。
// textSvc 允许为 nil：未配置文案服务时 AI 工具返回 503，其余功能不受影响。
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage, textSvc llm.TextService) (*HTTPHandler, error) {
	expiry := time.Duration(cfg.JWTExpirationMinutes) * time.Minute
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, expiry)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(repo, authManager)

	handler := &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		authManager:       authManager,
		sessions:          sessions,
		textService:       textSvc,
	}

	settleDelay := time.Duration(cfg.VIPSettleDelayMS) * time.Millisecond
	handler.payments = payment.NewSimulator(settleDelay, handler.settleVIPPurchase)

	return handler, nil
}

// Sessions 暴露会话存储，供路由装配时复用。
func (h *HTTPHandler) Sessions() *session.Store {
	return h.sessions
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

func (h *HTTPHandler) publicURL(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/files"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}
