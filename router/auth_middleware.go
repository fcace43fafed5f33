package router

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chii/internal/auth"
	"chii/internal/middleware"
)

const ctxAuthKey = "chii_auth"

// sessionAuth 处理没有 Authorization header 的请求：从会话 cookie 解析授权上下文。
// header 路径已由 middleware.Auth 处理。
func sessionAuth(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		a, _ := auth.FromContext(ctx)
		if !a.Login && !hasAuthorizationHeader(c.Request) {
			resolved, err := opts.Resolver.ResolveFromSession(ctx, sessionKey(c))
			if err != nil {
				body := middleware.AuthErrorBody(err)
				slog.ErrorContext(ctx, "解析会话失败", "request_id", middleware.GetRequestID(ctx), "err", err)
				if errors.Is(err, auth.ErrUnexpectedNotFound) {
					// 会话指向的用户已不存在，这个 cookie 不可能再恢复。
					clearSession(c)
				}
				c.AbortWithStatusJSON(body.StatusCode, body)
				return
			}
			if !resolved.Login && sessionKey(c) != "" {
				// 会话已过期或被撤销，清掉无效 cookie。
				clearSession(c)
			}
			a = resolved
			middleware.RecordAuth(ctx, a)
			c.Request = c.Request.WithContext(auth.WithContext(ctx, a))
		}
		c.Set(ctxAuthKey, a)
		c.Next()
	}
}

func hasAuthorizationHeader(r *http.Request) bool {
	values := r.Header.Values("Authorization")
	return len(values) > 1 || (len(values) == 1 && values[0] != "")
}

func requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authFromContext(c).Login {
			errorJSON(c, http.StatusUnauthorized, "NEED_LOGIN", "未登录")
			return
		}
		c.Next()
	}
}

func authFromContext(c *gin.Context) auth.Context {
	if c == nil {
		return auth.Empty()
	}
	v, ok := c.Get(ctxAuthKey)
	if !ok {
		return auth.Empty()
	}
	a, _ := v.(auth.Context)
	return a
}
