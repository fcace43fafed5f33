// Package obs 提供最小的可观测能力：结构化日志与 Prometheus 指标，默认不记录敏感信息。
package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// 这些字段即使被误传给日志也只输出掩码。
var redactedKeys = map[string]struct{}{
	"token":         {},
	"access_token":  {},
	"authorization": {},
	"password":      {},
	"session_id":    {},
}

func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttr,
	})
	return slog.New(handler)
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, MaskSecret(a.Value.String()))
	}
	return a
}

// MaskSecret 只保留末尾 4 个字符。
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	const keep = 4
	if len(s) <= keep {
		return "****"
	}
	return "****" + s[len(s)-keep:]
}
