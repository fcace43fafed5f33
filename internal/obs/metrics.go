package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	cacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chii_cache_requests_total",
		Help: "缓存读取次数，按缓存名与结果（hit/miss/error）区分。",
	}, []string{"cache", "result"})

	authResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chii_auth_resolutions_total",
		Help: "授权上下文解析次数，按凭据来源与结果区分。",
	}, []string{"source", "result"})
)

func init() {
	prometheus.MustRegister(cacheRequests, authResolutions)
}

func RecordCacheResult(cache string, result string) {
	cacheRequests.WithLabelValues(cache, result).Inc()
}

func RecordAuthResolution(source string, result string) {
	authResolutions.WithLabelValues(source, result).Inc()
}

// CacheRequestsCounter 暴露单个计数器，便于测试读取。
func CacheRequestsCounter(cache string, result string) prometheus.Counter {
	return cacheRequests.WithLabelValues(cache, result)
}

func AuthResolutionsCounter(source string, result string) prometheus.Counter {
	return authResolutions.WithLabelValues(source, result)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
