// Package server 组装 HTTP 路由、依赖与中间件，使 main 保持简单可读。
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"chii/internal/auth"
	"chii/internal/cache"
	"chii/internal/config"
	"chii/internal/middleware"
	"chii/internal/store"
	"chii/internal/version"
	"chii/router"
)

type AppOptions struct {
	Config config.Config
	DB     *sql.DB
	// Cache 是 token/用户缓存的共享后端，通常是 badger；nil 表示不缓存。
	Cache   cache.Cache
	Version version.BuildInfo
	Logger  *slog.Logger
}

type App struct {
	cfg      config.Config
	db       *sql.DB
	store    *store.Store
	resolver *auth.Resolver
	version  version.BuildInfo
	engine   *gin.Engine
}

func NewApp(opts AppOptions) (*App, error) {
	if opts.DB == nil {
		return nil, errors.New("db 不能为空")
	}
	st := store.New(opts.DB)
	st.SetDialect(store.Dialect(opts.Config.DB.Driver))

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver, err := auth.NewResolver(auth.Options{
		Tokens:              st,
		Users:               st,
		Permissions:         st,
		Sessions:            st,
		Cache:               opts.Cache,
		TokenCacheTTL:       opts.Config.Auth.TokenCacheTTL,
		UserCacheTTL:        opts.Config.Auth.UserCacheTTL,
		PermissionCacheTTL:  opts.Config.Auth.PermissionCacheTTL,
		PermissionCacheSize: opts.Config.Auth.PermissionCacheSize,
		RestrictedUserIDs:   opts.Config.Auth.RestrictedUserIDs,
		Logger:              logger,
	})
	if err != nil {
		return nil, err
	}

	app := &App{
		cfg:      opts.Config,
		db:       opts.DB,
		store:    st,
		resolver: resolver,
		version:  opts.Version,
	}

	if opts.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	sessionSecret := opts.Config.Security.SessionSecret
	if sessionSecret == "" {
		sessionSecret = randomSecret(32)
		logger.Warn("未配置 session secret，使用随机值（重启后会话 cookie 失效）")
	}
	sessionStore := cookie.NewStore([]byte(sessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.Config.Security.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   opts.Config.Env != "dev" && !opts.Config.Security.DisableSecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(SessionCookieName, sessionStore))

	router.SetRouter(engine, router.Options{
		Store:      st,
		Resolver:   resolver,
		SessionTTL: opts.Config.Security.SessionTTL,
		Healthz:    app.handleHealthz,
	})
	app.engine = engine
	return app, nil
}

func randomSecret(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (a *App) Handler() http.Handler {
	return middleware.Chain(a.engine, middleware.RequestID, middleware.AccessLog)
}

// Resolver 供入口在 HTTP 之外构造授权上下文（例如运维命令）。
func (a *App) Resolver() *auth.Resolver {
	return a.resolver
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type resp struct {
		OK      bool   `json:"ok"`
		Env     string `json:"env"`
		Version string `json:"version"`
		Date    string `json:"date"`
		DBOK    bool   `json:"db_ok"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbOK := a.db.PingContext(ctx) == nil

	out := resp{
		OK:      dbOK,
		Env:     a.cfg.Env,
		Version: a.version.Version,
		Date:    a.version.Date,
		DBOK:    dbOK,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if !dbOK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(out)
}
