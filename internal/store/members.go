package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const memberColumns = `uid, username, nickname, avatar, groupid, regdate, sign, email, password_crypt`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Username, &m.Nickname, &m.Avatar, &m.GroupID, &m.RegDate, &m.Sign, &m.Email, &m.PasswordCrypt)
	return m, err
}

// GetMemberByID 查询用户；不存在时返回 sql.ErrNoRows。
func (s *Store) GetMemberByID(ctx context.Context, userID int64) (Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM chii_members WHERE uid=?`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, sql.ErrNoRows
		}
		return Member{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return m, nil
}

// GetMemberByEmail 按邮箱（不区分大小写）查询用户，供登录流程使用。
func (s *Store) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Member{}, sql.ErrNoRows
	}
	m, err := scanMember(s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM chii_members WHERE LOWER(email)=? LIMIT 1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Member{}, sql.ErrNoRows
		}
		return Member{}, fmt.Errorf("查询用户失败: %w", err)
	}
	return m, nil
}

// CreateMember 写入用户，返回 uid。m.ID 非 0 时使用指定的 uid。
func (s *Store) CreateMember(ctx context.Context, m Member) (int64, error) {
	if strings.TrimSpace(m.Username) == "" {
		return 0, fmt.Errorf("用户名不能为空")
	}
	var (
		res sql.Result
		err error
	)
	if m.ID > 0 {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO chii_members(`+memberColumns+`)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, m.ID, m.Username, m.Nickname, m.Avatar, m.GroupID, m.RegDate, m.Sign, strings.ToLower(m.Email), m.PasswordCrypt)
	} else {
		res, err = s.db.ExecContext(ctx, `
INSERT INTO chii_members(username, nickname, avatar, groupid, regdate, sign, email, password_crypt)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, m.Username, m.Nickname, m.Avatar, m.GroupID, m.RegDate, m.Sign, strings.ToLower(m.Email), m.PasswordCrypt)
	}
	if err != nil {
		return 0, fmt.Errorf("创建用户失败: %w", err)
	}
	if m.ID > 0 {
		return m.ID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("获取用户 id 失败: %w", err)
	}
	return id, nil
}
