package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chii/internal/middleware"
)

func wrapHTTP(h http.Handler) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		}
	}

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func wrapHTTPFunc(f http.HandlerFunc) gin.HandlerFunc {
	if f == nil {
		return wrapHTTP(nil)
	}
	return wrapHTTP(f)
}

// httpMiddleware 把 net/http 中间件接入 gin：中间件调用 next 时继续 gin 链，否则中止。
func httpMiddleware(mw middleware.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		called := false
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			called = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !called {
			c.Abort()
		}
	}
}

func errorJSON(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, middleware.ErrorBody{
		Code:       code,
		Error:      http.StatusText(status),
		Message:    message,
		StatusCode: status,
	})
}
