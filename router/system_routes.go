package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chii/internal/obs"
)

func setSystemRoutes(r *gin.Engine, opts Options) {
	healthz := opts.Healthz
	if healthz == nil {
		healthz = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		}
	}
	r.GET("/healthz", wrapHTTPFunc(healthz))
	r.HEAD("/healthz", wrapHTTPFunc(healthz))

	metrics := opts.Metrics
	if metrics == nil {
		metrics = obs.MetricsHandler()
	}
	r.GET("/metrics", wrapHTTP(metrics))
}
