package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pudding/internal/api"
	"pudding/internal/config"
	"pudding/internal/llm"
	"pudding/internal/model"
	"pudding/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// 本地开发从 .env 读配置，生产环境直接用环境变量
	_ = godotenv.Load()

	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		return
	}

	// 初始化logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	repo, err := model.InitRepository(&cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise repository")
		return
	}

	if repo != nil {
		if err := model.SeedDefaultTools(context.Background(), repo); err != nil {
			logrus.WithError(err).Warn("failed to seed default tools")
		}
	}

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise storage")
		return
	}

	// 文案服务可选：没配 API Key 时 AI 工具返回 503，其余功能照常
	textSvc, err := llm.NewTextService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("text service unavailable")
		textSvc = nil
	}

	httpHandler, err := api.NewHTTPHandler(cfg, repo, store, textSvc)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise http handler")
		return
	}

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	apiGroup := r.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", httpHandler.Register)
	authGroup.POST("/login", httpHandler.Login)
	authGroup.GET("/me", httpHandler.AuthMiddleware(), httpHandler.Me)

	// 公开内容：文章、分类、评论列表对游客可见
	apiGroup.GET("/articles", httpHandler.ListArticles)
	apiGroup.GET("/articles/categories", httpHandler.ListArticleCategories)
	apiGroup.GET("/articles/:id", httpHandler.GetArticle)
	apiGroup.GET("/articles/:id/comments", httpHandler.ListComments)

	// 工具目录对游客可见，锁定状态按访问者身份计算
	apiGroup.GET("/tools", httpHandler.OptionalAuthMiddleware(), httpHandler.ListTools)
	apiGroup.GET("/tools/:id", httpHandler.OptionalAuthMiddleware(), httpHandler.GetToolDetail)

	protected := apiGroup.Group("")
	protected.Use(httpHandler.AuthMiddleware())
	protected.PATCH("/profile", httpHandler.UpdateProfile)
	protected.POST("/articles/:id/comments", httpHandler.CreateComment)
	protected.DELETE("/comments/:comment_id", httpHandler.DeleteComment)
	protected.POST("/uploads", httpHandler.UploadFile)
	protected.POST("/vip/checkout", httpHandler.StartVIPCheckout)
	protected.GET("/vip/checkout/:id", httpHandler.GetVIPCheckout)

	// 内置工具的服务端操作，每个操作先做工具级访问判定
	protected.POST("/tools/markdown/render", httpHandler.RenderMarkdown)
	protected.POST("/tools/json-format/format", httpHandler.FormatJSON)
	protected.POST("/tools/ai-writer/generate", httpHandler.GenerateCopy)

	admin := apiGroup.Group("/admin")
	admin.Use(httpHandler.AuthMiddleware(), httpHandler.RequireAdmin())
	admin.GET("/stats", httpHandler.AdminStats)

	admin.POST("/articles", httpHandler.CreateArticle)
	admin.PATCH("/articles/:id", httpHandler.UpdateArticle)
	admin.DELETE("/articles/:id", httpHandler.DeleteArticle)

	admin.GET("/tools", httpHandler.AdminListTools)
	admin.POST("/tools", httpHandler.CreateTool)
	admin.PATCH("/tools/:id", httpHandler.UpdateTool)
	admin.DELETE("/tools/:id", httpHandler.DeleteTool)

	admin.GET("/users", httpHandler.ListUsers)
	admin.POST("/users", httpHandler.CreateUser)
	admin.PATCH("/users/:id", httpHandler.UpdateUser)
	admin.DELETE("/users/:id", httpHandler.DeleteUser)

	if localProvider, ok := store.(storage.LocalBaseDirProvider); ok {
		publicPrefix := strings.TrimSpace(cfg.StoragePublicBaseURL)
		if publicPrefix == "" {
			publicPrefix = "/files"
		}
		if !strings.HasPrefix(publicPrefix, "http://") && !strings.HasPrefix(publicPrefix, "https://") {
			if !strings.HasPrefix(publicPrefix, "/") {
				publicPrefix = "/" + publicPrefix
			}
			r.Static(publicPrefix, localProvider.LocalBaseDir())
		}
	}

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logger.WithField("host", serverHost).Info("服务器启动")
	// 创建HTTP服务器
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  600 * time.Second,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("服务器启动失败")
	}
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
