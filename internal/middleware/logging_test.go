package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"chii/internal/auth"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(old) })
	return &buf
}

func TestAccessLog_DoesNotLogAuthorization(t *testing.T) {
	buf := captureLogs(t)

	secret := "abc123_secret_should_not_appear"
	req := httptest.NewRequest(http.MethodGet, "http://example.com/p1/me", nil)
	req.Header.Set("Authorization", "Bearer "+secret)

	rr := httptest.NewRecorder()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RequestID, AccessLog)

	h.ServeHTTP(rr, req)

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatalf("log contains secret token: %s", out)
	}
}

func TestAccessLog_RecordsResolvedUser(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "http://example.com/p1/me", nil)
	rr := httptest.NewRecorder()
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 模拟下游替换 *http.Request 之后再回填。
		r2 := r.WithContext(r.Context())
		RecordAuth(r2.Context(), auth.Context{UserID: 42, Login: true, Source: "app_1"})
		w.WriteHeader(http.StatusNoContent)
	}), RequestID, AccessLog)
	h.ServeHTTP(rr, req)

	var line struct {
		UserID   int64  `json:"user_id"`
		ClientID string `json:"client_id"`
		Status   int    `json:"status"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line.UserID != 42 || line.ClientID != "app_1" || line.Status != http.StatusNoContent {
		t.Fatalf("unexpected access log: %+v", line)
	}
}

func TestRecordAuth_WithoutAccessLogIsNoop(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	RecordAuth(req.Context(), auth.Context{UserID: 1, Login: true})
}
