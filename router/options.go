package router

import (
	"net/http"
	"time"

	"chii/internal/auth"
	"chii/internal/store"
)

type Options struct {
	Store    *store.Store
	Resolver *auth.Resolver

	// SessionTTL 是登录后 Web 会话的有效期。
	SessionTTL time.Duration

	Now func() time.Time

	// system
	Healthz http.HandlerFunc
	Metrics http.Handler
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
