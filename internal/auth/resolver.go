package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"chii/internal/cache"
	"chii/internal/obs"
	"chii/internal/store"
)

const (
	DefaultTokenCacheTTL       = 24 * time.Hour
	DefaultUserCacheTTL        = time.Hour
	DefaultPermissionCacheTTL  = 10 * time.Minute
	DefaultPermissionCacheSize = 1024

	bearerPrefix = "Bearer "
)

// 凭据来源，用于指标与日志。
const (
	SourceHeader  = "header"
	SourceSession = "session"
	SourceUserID  = "user_id"
)

// TokenStore 查询 OAuth access token；不存在或已过期时返回 sql.ErrNoRows。
type TokenStore interface {
	FindAccessToken(ctx context.Context, token string, now time.Time) (store.AccessToken, error)
}

// SessionStore 把 Web 会话 key 解析为用户 id；不存在、已过期或已撤销时返回 sql.ErrNoRows。
type SessionStore interface {
	ResolveWebSession(ctx context.Context, key string, now time.Time) (int64, error)
}

// Options 是 Resolver 的依赖。缓存 TTL 为 0 时使用默认值，小于 0 时禁用对应缓存。
type Options struct {
	Tokens      TokenStore
	Users       UserStore
	Permissions PermissionStore
	Sessions    SessionStore

	// Cache 是 token 与用户缓存的共享后端；nil 表示不缓存。
	Cache cache.Cache

	TokenCacheTTL       time.Duration
	UserCacheTTL        time.Duration
	PermissionCacheTTL  time.Duration
	PermissionCacheSize int

	// RestrictedUserIDs 为 nil 时使用 DefaultRestrictedUserIDs。
	RestrictedUserIDs []int64

	Now    func() time.Time
	Logger *slog.Logger
}

// Resolver 把请求凭据解析为授权上下文。进程内构造一次，并发安全。
type Resolver struct {
	tokens      TokenStore
	users       UserStore
	permissions PermissionStore
	sessions    SessionStore

	tokenCache *cache.Keyspace[string, cachedToken]
	userCache  *cache.Keyspace[int64, UserRecord]
	permCache  *cache.Local[GroupID, Permission]

	restricted map[int64]struct{}
	now        func() time.Time
	logger     *slog.Logger
}

type cachedToken struct {
	UserID    int64  `json:"user_id"`
	ClientID  string `json:"client_id"`
	ExpiredAt int64  `json:"expired_at"`
}

func NewResolver(opts Options) (*Resolver, error) {
	if opts.Tokens == nil || opts.Users == nil || opts.Permissions == nil {
		return nil, errors.New("token/user/permission store 不能为空")
	}
	r := &Resolver{
		tokens:      opts.Tokens,
		users:       opts.Users,
		permissions: opts.Permissions,
		sessions:    opts.Sessions,
		now:         opts.Now,
		logger:      opts.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}

	r.tokenCache = cache.NewKeyspace[string, cachedToken](opts.Cache, "auth_token",
		ttlOrDefault(opts.TokenCacheTTL, DefaultTokenCacheTTL),
		func(token string) string { return "auth:token:" + token })
	r.userCache = cache.NewKeyspace[int64, UserRecord](opts.Cache, "auth_user",
		ttlOrDefault(opts.UserCacheTTL, DefaultUserCacheTTL),
		func(id int64) string { return "auth:user:" + strconv.FormatInt(id, 10) })

	size := opts.PermissionCacheSize
	if size == 0 {
		size = DefaultPermissionCacheSize
	}
	r.permCache = cache.NewLocal[GroupID, Permission]("auth_permission", size,
		ttlOrDefault(opts.PermissionCacheTTL, DefaultPermissionCacheTTL))

	ids := opts.RestrictedUserIDs
	if ids == nil {
		ids = DefaultRestrictedUserIDs
	}
	r.restricted = make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		r.restricted[id] = struct{}{}
	}
	return r, nil
}

func ttlOrDefault(ttl, def time.Duration) time.Duration {
	if ttl == 0 {
		return def
	}
	return ttl
}

// ResolveFromHeader 解析 Authorization header 的全部取值。
//
// 没有 header（或唯一取值为空串）时返回匿名上下文；多个取值、缺少 "Bearer " 前缀或 token 为空返回
// ErrHeaderInvalid；token 不存在或已过期返回 ErrTokenInvalid。
func (r *Resolver) ResolveFromHeader(ctx context.Context, values []string) (Context, error) {
	a, err := r.resolveFromHeader(ctx, values)
	r.observe(SourceHeader, a, err)
	return a, err
}

func (r *Resolver) resolveFromHeader(ctx context.Context, values []string) (Context, error) {
	if len(values) == 0 {
		return Empty(), nil
	}
	if len(values) > 1 {
		return Empty(), ErrHeaderInvalid
	}
	raw := values[0]
	if raw == "" {
		return Empty(), nil
	}
	token, ok := strings.CutPrefix(raw, bearerPrefix)
	if !ok || token == "" {
		return Empty(), ErrHeaderInvalid
	}

	tok, err := r.lookupToken(ctx, token)
	if err != nil {
		return Empty(), err
	}
	user, err := r.FetchUserXByID(ctx, tok.UserID)
	if err != nil {
		return Empty(), err
	}
	return r.BuildContext(ctx, &user, tok.ClientID)
}

func (r *Resolver) lookupToken(ctx context.Context, token string) (cachedToken, error) {
	now := r.now()
	// 缓存的 token 同样要检查过期时间，过期的缓存项按未命中处理。
	if c, ok := r.tokenCache.Get(ctx, token); ok && c.UserID > 0 && c.ExpiredAt > now.Unix() {
		return c, nil
	}

	t, err := r.tokens.FindAccessToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cachedToken{}, ErrTokenInvalid
		}
		return cachedToken{}, fmt.Errorf("查询 access token: %w", err)
	}
	if t.UserID <= 0 {
		err := unexpectedNotFound("access_token.user_id", "token_id=%d client_id=%s", t.ID, t.ClientID)
		r.logger.ErrorContext(ctx, "access token 没有关联用户", "token_id", t.ID, "client_id", t.ClientID, "err", err)
		return cachedToken{}, err
	}

	c := cachedToken{UserID: t.UserID, ClientID: t.ClientID, ExpiredAt: t.ExpiredAt.Unix()}
	r.tokenCache.Set(ctx, token, c)
	return c, nil
}

// ResolveFromSession 解析 Cookie 中的会话 key；key 为空或会话无效时返回匿名上下文。
func (r *Resolver) ResolveFromSession(ctx context.Context, sessionKey string) (Context, error) {
	a, err := r.resolveFromSession(ctx, sessionKey)
	r.observe(SourceSession, a, err)
	return a, err
}

func (r *Resolver) resolveFromSession(ctx context.Context, sessionKey string) (Context, error) {
	if sessionKey == "" || r.sessions == nil {
		return Empty(), nil
	}
	userID, err := r.sessions.ResolveWebSession(ctx, sessionKey, r.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Empty(), nil
		}
		return Empty(), fmt.Errorf("查询会话: %w", err)
	}
	user, err := r.FetchUserXByID(ctx, userID)
	if err != nil {
		return Empty(), err
	}
	return r.BuildContext(ctx, &user, "")
}

// ResolveFromUserID 为服务端发起的操作构造授权上下文，用户必须存在。
func (r *Resolver) ResolveFromUserID(ctx context.Context, userID int64) (Context, error) {
	a, err := r.resolveFromUserID(ctx, userID)
	r.observe(SourceUserID, a, err)
	return a, err
}

func (r *Resolver) resolveFromUserID(ctx context.Context, userID int64) (Context, error) {
	user, err := r.FetchUserXByID(ctx, userID)
	if err != nil {
		return Empty(), err
	}
	return r.BuildContext(ctx, &user, "")
}

func (r *Resolver) observe(source string, a Context, err error) {
	result := "login"
	switch {
	case errors.Is(err, ErrHeaderInvalid):
		result = "header_invalid"
	case errors.Is(err, ErrTokenInvalid):
		result = "token_invalid"
	case err != nil:
		result = "error"
	case !a.Login:
		result = "anonymous"
	}
	obs.RecordAuthResolution(source, result)
}
