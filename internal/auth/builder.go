package auth

import "context"

// nsfwMinAccountAge 是账号注册满多久（秒）才允许查看 NSFW 内容，边界秒本身即满足。
const nsfwMinAccountAge int64 = 60 * 60 * 24 * 90

// DefaultRestrictedUserIDs 是内置的 NSFW 禁止名单，与权限位无关。
// 通过配置传入的名单会整体替换它。
var DefaultRestrictedUserIDs = []int64{1, 2, 3, 5, 6}

// BuildContext 把已解析的用户组装成授权上下文。user 为 nil 时返回匿名上下文。
//
// source 是签发 access token 的 OAuth client id，非 token 来源时为空。
func (r *Resolver) BuildContext(ctx context.Context, user *UserRecord, source string) (Context, error) {
	if user == nil {
		return Empty(), nil
	}
	perm, err := r.FetchPermission(ctx, user.GroupID)
	if err != nil {
		return Empty(), err
	}
	return Context{
		UserID:       user.ID,
		Login:        true,
		AllowNsfw:    r.allowNsfw(user, perm),
		Permission:   perm,
		RegisteredAt: user.RegisteredAt,
		GroupID:      user.GroupID,
		Source:       source,
	}, nil
}

func (r *Resolver) allowNsfw(user *UserRecord, perm Permission) bool {
	if _, ok := r.restricted[user.ID]; ok {
		return false
	}
	if perm.Has(PermBanVisit) || perm.Has(PermUserBan) {
		return false
	}
	return r.now().Unix()-user.RegisteredAt >= nsfwMinAccountAge
}
