package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"chii/internal/auth"
)

// HeaderResolver 由 *auth.Resolver 实现。
type HeaderResolver interface {
	ResolveFromHeader(ctx context.Context, values []string) (auth.Context, error)
}

// ErrorBody 是鉴权失败时的响应体。
type ErrorBody struct {
	Code       string `json:"code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Auth 解析 Authorization header 并把授权上下文放进请求 context；没有 header 的请求以匿名身份放行。
func Auth(res HeaderResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := res.ResolveFromHeader(r.Context(), r.Header.Values("Authorization"))
			if err != nil {
				WriteAuthError(w, r, err)
				return
			}
			RecordAuth(r.Context(), a)
			next.ServeHTTP(w, r.WithContext(auth.WithContext(r.Context(), a)))
		})
	}
}

// AuthErrorBody 把解析错误映射为状态码与响应体。数据异常与存储故障只返回通用 500，细节写日志。
func AuthErrorBody(err error) ErrorBody {
	switch {
	case errors.Is(err, auth.ErrHeaderInvalid):
		return ErrorBody{Code: "AUTHORIZATION_INVALID", Error: "Unauthorized", Message: auth.ErrHeaderInvalid.Error(), StatusCode: http.StatusUnauthorized}
	case errors.Is(err, auth.ErrTokenInvalid):
		return ErrorBody{Code: "TOKEN_INVALID", Error: "Unauthorized", Message: auth.ErrTokenInvalid.Error(), StatusCode: http.StatusUnauthorized}
	default:
		return ErrorBody{Code: "INTERNAL_SERVER_ERROR", Error: "Internal Server Error", Message: "服务器内部错误", StatusCode: http.StatusInternalServerError}
	}
}

func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	body := AuthErrorBody(err)
	if body.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "解析授权上下文失败", "request_id", GetRequestID(r.Context()), "path", r.URL.Path, "err", err)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(body.StatusCode)
	_ = json.NewEncoder(w).Encode(body)
}
