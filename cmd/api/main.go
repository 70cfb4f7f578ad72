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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarcusMartins38/imanage-me-back/internal/core/auth"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/cache"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/config"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/database"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/logger"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/oauth"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/server"
	"github.com/MarcusMartins38/imanage-me-back/internal/core/storage"
	"github.com/MarcusMartins38/imanage-me-back/internal/domain"
	"github.com/MarcusMartins38/imanage-me-back/internal/repo"
	"github.com/MarcusMartins38/imanage-me-back/internal/service"
	"github.com/MarcusMartins38/imanage-me-back/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&domain.User{}, &domain.Task{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	jwter := &auth.JWTer{
		Secret:     []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshTokenTTLDay) * 24 * time.Hour,
	}

	// Redis 缓存（没配就降级为直查）
	var rc *cache.Cache
	if cfg.Redis.Addr != "" {
		rc = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	// 对象存储（头像上传）
	var images service.ImageStore
	if cfg.Storage.Endpoint != "" {
		ms, err := storage.NewMinio(context.Background(), storage.Opts{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			log.Fatal("object storage init failed", zap.Error(err))
		}
		images = ms
		log.Info("object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	}

	// 依赖装配：repo -> service -> router，全部显式注入
	userRepo := repo.NewUserRepo(db)
	taskRepo := repo.NewTaskRepo(db)
	verifier := oauth.NewGoogleVerifier(cfg.Google.ClientID)

	deps := router.Deps{
		Identity:     service.NewIdentity(userRepo, verifier, log),
		Sessions:     service.NewSessions(jwter, userRepo, log),
		Users:        service.NewUsers(userRepo, images, log),
		Tasks:        service.NewTasks(taskRepo, rc, log),
		JWTer:        jwter,
		CookieSecure: cfg.JWT.CookieSecure,
		AllowOrigins: cfg.App.HTTP.AllowOrigins,
	}

	r := router.NewAPIEngine(log, deps)

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api start FAILED", zap.Error(err))
		}
	}()
	log.Info("api started SUCCESS")

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if rc != nil {
		_ = rc.RDB.Close()
	}
	log.Info("api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
