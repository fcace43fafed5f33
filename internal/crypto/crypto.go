// Package crypto 提供凭据相关的摘要与随机数工具；会话 key 只以摘要形式落库。
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

func TokenHash(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return sum[:]
}

// NewRandomToken 生成 URL 安全的随机串，bytesLen 小于 16 时按 16 处理。
func NewRandomToken(prefix string, bytesLen int) (string, error) {
	if bytesLen < 16 {
		bytesLen = 16
	}
	b := make([]byte, bytesLen)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("生成随机数失败: %w", err)
	}
	return prefix + base64.RawURLEncoding.EncodeToString(b), nil
}
