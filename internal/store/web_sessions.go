package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/sjson"

	"chii/internal/crypto"
)

// CreateWebSession 创建 Web 会话并返回会话 key 原文；库中只保存 key 的 sha256。
func (s *Store) CreateWebSession(ctx context.Context, userID int64, meta WebSessionMeta, now time.Time, ttl time.Duration) (string, error) {
	if userID <= 0 {
		return "", errors.New("userID 不能为空")
	}
	if ttl <= 0 {
		return "", errors.New("会话有效期必须大于 0")
	}
	key, err := crypto.NewRandomToken("", 32)
	if err != nil {
		return "", err
	}
	createdAt := now.Unix()
	expiredAt := now.Add(ttl).Unix()

	value, err := encodeWebSessionValue(userID, meta, createdAt, expiredAt)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO chii_os_web_sessions(key_hash, user_id, value, created_at, expired_at)
VALUES(?, ?, ?, ?, ?)
`, crypto.TokenHash(key), userID, value, createdAt, expiredAt); err != nil {
		return "", fmt.Errorf("创建会话失败: %w", err)
	}
	return key, nil
}

func encodeWebSessionValue(userID int64, meta WebSessionMeta, createdAt, expiredAt int64) ([]byte, error) {
	value := []byte(`{}`)
	var err error
	for _, kv := range []struct {
		path string
		v    any
	}{
		{"user_id", userID},
		{"reason", meta.Reason},
		{"user_agent", meta.UserAgent},
		{"created_at", createdAt},
		{"expired_at", expiredAt},
	} {
		if value, err = sjson.SetBytes(value, kv.path, kv.v); err != nil {
			return nil, fmt.Errorf("编码会话信息失败: %w", err)
		}
	}
	return value, nil
}

// ResolveWebSession 返回会话对应的用户 id；不存在、已过期或已撤销时返回 sql.ErrNoRows。
func (s *Store) ResolveWebSession(ctx context.Context, key string, now time.Time) (int64, error) {
	sess, err := s.GetWebSession(ctx, key)
	if err != nil {
		return 0, err
	}
	if sess.ExpiredAt <= now.Unix() {
		return 0, sql.ErrNoRows
	}
	return sess.UserID, nil
}

func (s *Store) GetWebSession(ctx context.Context, key string) (WebSession, error) {
	if key == "" {
		return WebSession{}, sql.ErrNoRows
	}
	var sess WebSession
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, value, created_at, expired_at
FROM chii_os_web_sessions
WHERE key_hash=?
`, crypto.TokenHash(key)).Scan(&sess.UserID, &sess.Value, &sess.CreatedAt, &sess.ExpiredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return WebSession{}, sql.ErrNoRows
		}
		return WebSession{}, fmt.Errorf("查询会话失败: %w", err)
	}
	return sess, nil
}

// RevokeWebSession 通过把过期时间置为 now 撤销会话，保留记录用于审计。
func (s *Store) RevokeWebSession(ctx context.Context, key string, now time.Time) error {
	if key == "" {
		return ErrSessionKeyEmpty
	}
	if _, err := s.db.ExecContext(ctx, `
UPDATE chii_os_web_sessions
SET expired_at=?
WHERE key_hash=? AND expired_at>?
`, now.Unix(), crypto.TokenHash(key), now.Unix()); err != nil {
		return fmt.Errorf("撤销会话失败: %w", err)
	}
	return nil
}
