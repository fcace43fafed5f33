package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"chii/internal/auth"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Flush() {
	if fl, ok := w.ResponseWriter.(http.Flusher); ok {
		fl.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// authSlot 让下游（包括 gin 内部替换了 *http.Request 的 handler）把解析出的授权上下文回填给访问日志。
type authSlot struct {
	mu  sync.Mutex
	a   auth.Context
	set bool
}

// RecordAuth 把授权上下文记录到当前请求的访问日志；请求未经过 AccessLog 时什么也不做。
func RecordAuth(ctx context.Context, a auth.Context) {
	slot, ok := ctx.Value(authSlotKey).(*authSlot)
	if !ok {
		return
	}
	slot.mu.Lock()
	slot.a, slot.set = a, true
	slot.mu.Unlock()
}

// AccessLog 记录结构化访问日志，不记录请求体与任何明文凭据。
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w}
		slot := &authSlot{}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), authSlotKey, slot)))
		lat := time.Since(start)

		var userID, source any
		slot.mu.Lock()
		if slot.set && slot.a.Login {
			userID = slot.a.UserID
			source = slot.a.Source
		}
		slot.mu.Unlock()

		slog.InfoContext(r.Context(), "access",
			"request_id", GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"latency_ms", lat.Milliseconds(),
			"user_id", userID,
			"client_id", source,
		)
	})
}
