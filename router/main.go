package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"chii/internal/middleware"
)

const maxRequestBodyBytes = 1 << 20

// SetRouter 挂载全部路由。engine 需要预先安装 sessions 中间件。
func SetRouter(r *gin.Engine, opts Options) {
	setSystemRoutes(r, opts)

	p1 := r.Group("/p1")
	p1.Use(gzip.Gzip(gzip.DefaultCompression), httpMiddleware(middleware.MaxBytes(maxRequestBodyBytes)))
	// 登录与登出只依赖会话 cookie 本身，不解析凭据，失效的会话不会挡住它们。
	setSessionRoutes(p1, opts)

	authed := p1.Group("")
	authed.Use(httpMiddleware(middleware.Auth(opts.Resolver)), sessionAuth(opts))
	setUserAPIRoutes(authed, opts)
}
