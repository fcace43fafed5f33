// Package auth 将 Cookie 会话与 Bearer Token 两种凭据统一解析为请求级的授权上下文（Context），
// 并负责权限查询、NSFW 判定与相关缓存。
package auth

import (
	"context"
)

// Context 是单个请求的授权信息，构造后不再修改，按值传递。
//
// Login 为 false 时其余字段均为零值。
type Context struct {
	UserID       int64      `json:"user_id"`
	Login        bool       `json:"login"`
	AllowNsfw    bool       `json:"allow_nsfw"`
	Permission   Permission `json:"permission"`
	RegisteredAt int64      `json:"registered_at"`
	GroupID      GroupID    `json:"group_id"`
	// Source 是 access token 所属的 OAuth client id；会话或按用户 id 构造时为空。
	Source string `json:"source,omitempty"`
}

// Empty 返回匿名请求的授权上下文。
func Empty() Context {
	return Context{}
}

func (c Context) IsEmpty() bool {
	return c == Context{}
}

type ctxKey int

const contextKey ctxKey = 1

func WithContext(ctx context.Context, a Context) context.Context {
	return context.WithValue(ctx, contextKey, a)
}

// FromContext 取出请求中的授权上下文；未经过鉴权中间件时返回匿名上下文与 false。
func FromContext(ctx context.Context) (Context, bool) {
	v := ctx.Value(contextKey)
	if v == nil {
		return Empty(), false
	}
	a, ok := v.(Context)
	return a, ok
}
