package auth

import (
	"context"
	"fmt"
)

// PermissionStore 读取用户组的序列化权限，*store.Store 满足该接口。
//
// ok=false 表示用户组不存在。
type PermissionStore interface {
	GetUserGroupPermission(ctx context.Context, groupID int64) (blob string, ok bool, err error)
}

// FetchPermission 返回用户组的权限，结果在进程内缓存。
//
// 用户组不存在、权限为空或无法解析时记录 warning 并返回 DefaultPermission，绝不因缺失而放宽权限。
func (r *Resolver) FetchPermission(ctx context.Context, groupID GroupID) (Permission, error) {
	now := r.now()
	if p, ok := r.permCache.Get(now, groupID); ok {
		return p, nil
	}

	blob, ok, err := r.permissions.GetUserGroupPermission(ctx, int64(groupID))
	if err != nil {
		return Permission{}, fmt.Errorf("查询用户组 %d 权限: %w", groupID, err)
	}

	var p Permission
	switch {
	case !ok:
		r.logger.WarnContext(ctx, "用户组没有权限记录，使用默认权限", "group_id", int64(groupID))
		p = DefaultPermission()
	default:
		decoded, present, err := DecodePermission(blob)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "用户组权限无法解析，使用默认权限", "group_id", int64(groupID), "err", err)
			p = DefaultPermission()
		case !present:
			r.logger.WarnContext(ctx, "用户组权限为空，使用默认权限", "group_id", int64(groupID))
			p = DefaultPermission()
		default:
			p = decoded
		}
	}

	r.permCache.Set(now, groupID, p)
	return p, nil
}
