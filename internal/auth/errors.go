package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrHeaderInvalid 表示 Authorization header 形态不合法（多个值、缺少 "Bearer " 前缀或 token 为空）。
	ErrHeaderInvalid = errors.New("authorization header should be \"Bearer ${TOKEN}\"")
	// ErrTokenInvalid 表示 access token 不存在或已过期。
	ErrTokenInvalid = errors.New("access token is invalid or expired")
	// ErrUnexpectedNotFound 表示本应存在的数据缺失（数据损坏或上游逻辑错误），不应向客户端暴露细节。
	ErrUnexpectedNotFound = errors.New("unexpected not found")
)

// UnexpectedNotFoundError 携带缺失数据的上下文，仅用于日志。
type UnexpectedNotFoundError struct {
	Entity string
	Detail string
}

func (e *UnexpectedNotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Detail)
}

func (e *UnexpectedNotFoundError) Unwrap() error {
	return ErrUnexpectedNotFound
}

func unexpectedNotFound(entity string, format string, args ...any) error {
	return &UnexpectedNotFoundError{Entity: entity, Detail: fmt.Sprintf(format, args...)}
}
