package store

import "errors"

var (
	// ErrSessionKeyEmpty 表示调用方传入了空的会话 key。
	ErrSessionKeyEmpty = errors.New("会话 key 不能为空")
)
