package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/user/moviechat/internal/config"
	"github.com/user/moviechat/internal/handler"
	"github.com/user/moviechat/internal/middleware"
	"github.com/user/moviechat/internal/repository"
	"github.com/user/moviechat/internal/router"
	"github.com/user/moviechat/internal/service"
	"github.com/user/moviechat/internal/utils"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg := config.Load()
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Info().Msg("未找到 .env 文件，使用系统环境变量")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("配置无效")
	}

	// 加载电影目录，失败时不启动
	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("加载电影目录失败")
	}
	log.Info().Int("movies", catalog.Len()).Int("genres", len(catalog.GenreVocabulary())).Bool("audience", catalog.HasAdultFlag()).Msg("电影目录已加载")

	// 外部分类器
	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	classifier, err := buildClassifier(rootCtx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化分类器失败")
	}

	// 对话服务
	sessionStore := repository.NewSessionStore(cfg.SessionTTL)
	chat := service.NewChatService(
		catalog,
		sessionStore,
		classifier,
		utils.NewRandom(cfg.RandomSeed),
		service.ChatConfig{
			PageSize: cfg.PageSize,
			Recommend: service.RecommendConfig{
				SampleCap:     cfg.SampleCap,
				SampleMode:    cfg.SampleMode,
				ExpandCluster: cfg.ExpandCluster,
			},
		},
	)

	// 启动定时清理任务
	service.NewCleanupService(sessionStore, time.Minute).Start(rootCtx)

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 设置 Session 中间件，保存浏览器的会话标识
	store := cookie.NewStore([]byte(cfg.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("moviechat", store))

	// 加载模板
	r.HTMLRender = router.LoadTemplates("./web/templates")
	r.Static("/static", "./web/static")

	// 中间件
	r.Use(middleware.Logger())

	// 注册路由
	h := handler.NewHandler(chat, cfg)
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second + cfg.ClassifierTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Info().Msgf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("服务器强制关闭")
	}

	log.Info().Msg("服务器已退出")
}

// loadCatalog 按配置从 CSV 或 PostgreSQL 加载目录
func loadCatalog(cfg *config.Config) (*repository.Catalog, error) {
	if cfg.CatalogSource != "postgres" {
		return repository.LoadCatalogCSV(cfg.CatalogPath)
	}

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCatalogLoad, err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// 目录只读一次，之后不再需要连接
		defer sqlDB.Close()
	}
	return repository.LoadCatalogFromPostgres(db, cfg.CatalogTable)
}

// buildClassifier 选择分类器后端并加上保护层；none 时只用本地规则
func buildClassifier(ctx context.Context, cfg *config.Config) (service.Classifier, error) {
	var inner service.Classifier
	switch cfg.ClassifierProvider {
	case "gemini":
		g, err := service.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		inner = g
	case "ollama":
		inner = service.NewOllamaClassifier(cfg.OllamaHost, cfg.OllamaModel)
	default:
		log.Info().Msg("未配置外部分类器，只使用本地规则")
		return service.NopClassifier{}, nil
	}

	guard := service.DefaultGuardConfig()
	guard.Timeout = cfg.ClassifierTimeout
	guard.RPS = cfg.ClassifierRPS
	guard.CacheSize = cfg.ClassifierCache
	guard.CacheTTL = cfg.ClassifierCacheTTL
	log.Info().Str("provider", cfg.ClassifierProvider).Dur("timeout", guard.Timeout).Msg("外部分类器已启用")
	return service.NewGuardedClassifier(inner, guard), nil
}
