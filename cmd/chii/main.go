// chii 是 bangumi 私有 API 的鉴权服务入口：把会话 cookie 与 Bearer token 解析为统一的授权上下文。
package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chii/internal/cache"
	"chii/internal/config"
	"chii/internal/obs"
	"chii/internal/server"
	"chii/internal/version"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("加载配置失败", "err", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	db, err := openStore(cfg)
	if err != nil {
		slog.Error("初始化数据库失败", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	cacheDB, err := cache.OpenBadger(cfg.Cache.Dir)
	if err != nil {
		slog.Error("初始化缓存失败", "dir", cfg.Cache.Dir, "err", err)
		os.Exit(1)
	}
	defer cacheDB.Close()

	app, err := server.NewApp(server.AppOptions{
		Config:  cfg,
		DB:      db,
		Cache:   cache.NewBadger(cacheDB),
		Version: version.Info(),
		Logger:  logger,
	})
	if err != nil {
		slog.Error("初始化服务失败", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		slog.Error("HTTP 服务监听启动失败", "addr", cfg.Server.Addr, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("服务启动", "addr", ln.Addr().String(), "version", version.Info().Version)
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-serverErr:
		slog.Error("HTTP 服务异常退出", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("优雅停机失败", "err", err)
		_ = httpServer.Close()
	}
	slog.Info("服务已退出")
}
