package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chii/internal/store"
)

// UserStore 是用户的权威数据源，*store.Store 满足该接口。
type UserStore interface {
	GetMemberByID(ctx context.Context, userID int64) (store.Member, error)
}

// UserRecord 是鉴权需要的最小用户投影，按值缓存。
type UserRecord struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Nickname     string  `json:"nickname"`
	Avatar       string  `json:"avatar"`
	GroupID      GroupID `json:"group_id"`
	RegisteredAt int64   `json:"registered_at"`
	Signature    string  `json:"signature"`
}

func userRecordFromMember(m store.Member) UserRecord {
	return UserRecord{
		ID:           m.ID,
		Username:     m.Username,
		Nickname:     m.Nickname,
		Avatar:       m.Avatar,
		GroupID:      GroupID(m.GroupID),
		RegisteredAt: m.RegDate,
		Signature:    m.Sign,
	}
}

// FetchUserByID 先查用户缓存再回源；用户不存在时返回 ok=false。
func (r *Resolver) FetchUserByID(ctx context.Context, userID int64) (UserRecord, bool, error) {
	if userID <= 0 {
		return UserRecord{}, false, nil
	}
	if u, ok := r.userCache.Get(ctx, userID); ok {
		return u, true, nil
	}
	m, err := r.users.GetMemberByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserRecord{}, false, nil
		}
		return UserRecord{}, false, fmt.Errorf("查询用户 %d: %w", userID, err)
	}
	u := userRecordFromMember(m)
	r.userCache.Set(ctx, userID, u)
	return u, true, nil
}

// FetchUserXByID 用于调用方已确认 id 必然有效的场景（例如刚通过鉴权）；用户缺失视为数据异常。
func (r *Resolver) FetchUserXByID(ctx context.Context, userID int64) (UserRecord, error) {
	u, ok, err := r.FetchUserByID(ctx, userID)
	if err != nil {
		return UserRecord{}, err
	}
	if !ok {
		err := unexpectedNotFound("user", "uid=%d", userID)
		r.logger.ErrorContext(ctx, "用户不存在", "user_id", userID, "err", err)
		return UserRecord{}, err
	}
	return u, nil
}
