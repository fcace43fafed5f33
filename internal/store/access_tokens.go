package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FindAccessToken 按 token 原文精确匹配（区分大小写）查询未过期的 access token。
//
// 不存在或已过期时返回 sql.ErrNoRows。user_id 为空或无法解析时 AccessToken.UserID 为 0，由调用方判定。
func (s *Store) FindAccessToken(ctx context.Context, token string, now time.Time) (AccessToken, error) {
	if token == "" {
		return AccessToken{}, sql.ErrNoRows
	}
	var (
		t      AccessToken
		userID sql.NullString
	)
	// MySQL 侧 access_token 列为 utf8mb4_bin；SQLite 默认 BINARY collation。
	err := s.db.QueryRowContext(ctx, `
SELECT id, access_token, client_id, user_id, expires, scope
FROM chii_oauth_access_tokens
WHERE access_token=?
LIMIT 1
`, token).Scan(&t.ID, &t.AccessToken, &t.ClientID, &userID, &t.ExpiredAt, &t.Scope)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AccessToken{}, sql.ErrNoRows
		}
		return AccessToken{}, fmt.Errorf("查询 access token 失败: %w", err)
	}
	// 列 collation 被改成大小写不敏感时仍保证精确匹配。
	if t.AccessToken != token {
		return AccessToken{}, sql.ErrNoRows
	}
	if !t.ExpiredAt.After(now) {
		return AccessToken{}, sql.ErrNoRows
	}
	if userID.Valid {
		if id, err := strconv.ParseInt(strings.TrimSpace(userID.String), 10, 64); err == nil && id > 0 {
			t.UserID = id
		}
	}
	return t, nil
}

// CreateAccessToken 写入 access token；userID 为 0 时 user_id 列写 NULL。
func (s *Store) CreateAccessToken(ctx context.Context, token string, clientID string, userID int64, expiredAt time.Time) (int64, error) {
	if token == "" {
		return 0, errors.New("access token 不能为空")
	}
	var uid any
	if userID > 0 {
		uid = strconv.FormatInt(userID, 10)
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO chii_oauth_access_tokens(access_token, client_id, user_id, expires)
VALUES(?, ?, ?, ?)
`, token, clientID, uid, expiredAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("创建 access token 失败: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取 access token id 失败: %w", err)
	}
	return id, nil
}
