// Package store 定义数据库层的核心数据结构，避免在鉴权逻辑中散落 SQL 字段细节。
package store

import (
	"database/sql"
	"time"
)

// Member 对应 chii_members 中鉴权需要的列。
type Member struct {
	ID            int64
	Username      string
	Nickname      string
	Avatar        string
	GroupID       int64
	RegDate       int64 // unix 秒
	Sign          string
	Email         string
	PasswordCrypt []byte
}

type UserGroup struct {
	ID         int64
	Name       string
	Permission sql.NullString
	Dateline   int64
}

// AccessToken 对应 chii_oauth_access_tokens。UserID 为 0 表示该行没有关联用户。
type AccessToken struct {
	ID          int64
	AccessToken string
	ClientID    string
	UserID      int64
	ExpiredAt   time.Time
	Scope       sql.NullString
}

// WebSessionMeta 写入 chii_os_web_sessions.value，便于排查会话来源。
type WebSessionMeta struct {
	Reason    string
	UserAgent string
}

type WebSession struct {
	UserID    int64
	Value     []byte
	CreatedAt int64
	ExpiredAt int64
}
