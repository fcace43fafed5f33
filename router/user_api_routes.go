package router

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"chii/internal/auth"
	"chii/internal/middleware"
	"chii/internal/store"
)

const defaultSessionTTL = 30 * 24 * time.Hour

var dummyPasswordHash = sync.OnceValue(func() []byte {
	h, _ := auth.HashPassword("chii-unknown-account")
	return h
})

type userLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	ID           int64           `json:"id"`
	Username     string          `json:"username"`
	Nickname     string          `json:"nickname"`
	Avatar       string          `json:"avatar"`
	Sign         string          `json:"sign"`
	GroupID      auth.GroupID    `json:"group_id"`
	RegisteredAt int64           `json:"registered_at"`
	AllowNsfw    bool            `json:"allow_nsfw"`
	Permission   auth.Permission `json:"permission"`
	ClientID     string          `json:"client_id,omitempty"`
}

func setSessionRoutes(r gin.IRoutes, opts Options) {
	r.POST("/login", userLoginHandler(opts))
	r.POST("/logout", userLogoutHandler(opts))
}

func setUserAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/me", requireLogin(), userSelfHandler(opts))
}

func userLoginHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Store == nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "store 未初始化")
			return
		}

		var req userLoginRequest
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				errorJSON(c, http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "请求体过大")
				return
			}
			errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "无效的参数")
			return
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "无效的参数")
			return
		}
		email := strings.TrimSpace(req.Email)
		if email == "" || req.Password == "" {
			errorJSON(c, http.StatusBadRequest, "BAD_REQUEST", "邮箱或密码不能为空")
			return
		}

		ctx := c.Request.Context()
		m, err := opts.Store.GetMemberByEmail(ctx, email)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			slog.ErrorContext(ctx, "查询用户失败", "err", err)
			errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "服务器内部错误")
			return
		}
		if err != nil {
			// 邮箱不存在时也跑一次 bcrypt，响应耗时不区分邮箱是否已注册。
			auth.ComparePassword(dummyPasswordHash(), req.Password)
			errorJSON(c, http.StatusUnauthorized, "EMAIL_PASSWORD_ERROR", "邮箱或密码错误")
			return
		}
		if !auth.ComparePassword(m.PasswordCrypt, req.Password) {
			errorJSON(c, http.StatusUnauthorized, "EMAIL_PASSWORD_ERROR", "邮箱或密码错误")
			return
		}

		ttl := opts.SessionTTL
		if ttl <= 0 {
			ttl = defaultSessionTTL
		}
		key, err := opts.Store.CreateWebSession(ctx, m.ID, store.WebSessionMeta{
			Reason:    "login",
			UserAgent: c.Request.UserAgent(),
		}, opts.now(), ttl)
		if err != nil {
			slog.ErrorContext(ctx, "创建会话失败", "user_id", m.ID, "err", err)
			errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "服务器内部错误")
			return
		}
		if err := setSessionKey(c, key); err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "无法保存会话信息，请重试")
			return
		}

		a, err := opts.Resolver.ResolveFromUserID(ctx, m.ID)
		if err != nil {
			slog.ErrorContext(ctx, "构造授权上下文失败", "user_id", m.ID, "err", err)
			errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "服务器内部错误")
			return
		}
		middleware.RecordAuth(ctx, a)
		c.Set(ctxAuthKey, a)
		writeMe(c, opts, a)
	}
}

func userLogoutHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := sessionKey(c); key != "" && opts.Store != nil {
			if err := opts.Store.RevokeWebSession(c.Request.Context(), key, opts.now()); err != nil {
				slog.ErrorContext(c.Request.Context(), "撤销会话失败", "err", err)
				errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "服务器内部错误")
				return
			}
		}
		clearSession(c)
		c.Status(http.StatusNoContent)
	}
}

func userSelfHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		writeMe(c, opts, authFromContext(c))
	}
}

func writeMe(c *gin.Context, opts Options, a auth.Context) {
	ctx := c.Request.Context()
	u, err := opts.Resolver.FetchUserXByID(ctx, a.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "查询用户失败", "user_id", a.UserID, "err", err)
		errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "服务器内部错误")
		return
	}
	c.JSON(http.StatusOK, meResponse{
		ID:           u.ID,
		Username:     u.Username,
		Nickname:     u.Nickname,
		Avatar:       u.Avatar,
		Sign:         u.Signature,
		GroupID:      a.GroupID,
		RegisteredAt: a.RegisteredAt,
		AllowNsfw:    a.AllowNsfw,
		Permission:   a.Permission,
		ClientID:     a.Source,
	})
}
