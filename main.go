package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/cache"
	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/Bekzhanizb/QuitTrackerBackend/config"
	"github.com/Bekzhanizb/QuitTrackerBackend/db"
	"github.com/Bekzhanizb/QuitTrackerBackend/handlers"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/routes"
	"github.com/Bekzhanizb/QuitTrackerBackend/services"
	"github.com/Bekzhanizb/QuitTrackerBackend/store"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	utils.InitLogger(cfg)
	defer utils.Logger.Sync()
	utils.InitMetrics()

	utils.Logger.Info("starting_application", zap.String("env", cfg.Env))

	conn, err := db.Connect(cfg)
	if err != nil {
		utils.Logger.Fatal("database_unavailable", zap.Error(err))
	}
	if err := db.Migrate(conn); err != nil {
		utils.Logger.Fatal("migration_failed", zap.Error(err))
	}

	var (
		responseCache *cache.Cache
		seen          celebrate.SeenStore
	)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := cache.Connect(ctx, cfg, utils.Logger)
	cancel()
	if err != nil {
		utils.Logger.Warn("redis_unavailable_using_memory", zap.Error(err))
		seen = celebrate.NewMemorySeenStore()
	} else {
		responseCache = cache.New(client)
		seen = cache.NewRedisSeenStore(client)
		defer responseCache.Close()
	}

	users := services.NewUserService(store.New[models.UserRecord](conn, services.UserKind), utils.Logger)
	hub := services.NewCelebrationHub(users, seen, cfg.ResetClearsSeen, utils.Logger)
	h := handlers.New(cfg, users, hub, responseCache)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go hub.Janitor(janitorCtx, time.Minute, cfg.CelebrationIdleTTL)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	startServer(cfg, routes.Setup(h))
}

func startServer(cfg config.Config, router *gin.Engine) {
	baseCtx, stopStreams := context.WithCancel(context.Background())
	defer stopStreams()

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// no write timeout: celebration streams stay open
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(stopStreams)

	utils.Logger.Info("starting_http_server", zap.String("port", cfg.Port))
	fmt.Printf("Quit Tracker backend listening on http://localhost:%s (metrics: /metrics, health: /health)\n", cfg.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("http_server_failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.Logger.Info("shutting_down_server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.Error("server_forced_shutdown", zap.Error(err))
	}

	utils.Logger.Info("server_stopped")
}
