package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/sjson"
)

// GetUserGroupPermission 读取用户组的序列化权限。
//
// ok=false 表示用户组不存在；存在但 usr_grp_perm 为 NULL 时返回空串与 ok=true。
func (s *Store) GetUserGroupPermission(ctx context.Context, groupID int64) (blob string, ok bool, err error) {
	var perm sql.NullString
	err = s.db.QueryRowContext(ctx, `
SELECT usr_grp_perm
FROM chii_usergroup
WHERE usr_grp_id=?
LIMIT 1
`, groupID).Scan(&perm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("查询用户组权限失败: %w", err)
	}
	return perm.String, true, nil
}

// UpsertUserGroup 写入用户组；perms 以 JSON 对象形式落库，取值 "1" 表示启用。
func (s *Store) UpsertUserGroup(ctx context.Context, groupID int64, name string, perms map[string]string) error {
	if groupID <= 0 {
		return errors.New("usr_grp_id 不合法")
	}
	blob, err := encodePermissionBlob(perms)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertUserGroupSQL(s.dialect), groupID, name, blob, time.Now().Unix()); err != nil {
		return fmt.Errorf("写入用户组失败: %w", err)
	}
	return nil
}

func encodePermissionBlob(perms map[string]string) (string, error) {
	keys := make([]string, 0, len(perms))
	for k := range perms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	blob := "{}"
	for _, k := range keys {
		var err error
		// 权限名只含小写字母与下划线，不需要转义 sjson 路径。
		blob, err = sjson.Set(blob, k, perms[k])
		if err != nil {
			return "", fmt.Errorf("编码权限 %s 失败: %w", k, err)
		}
	}
	return blob, nil
}
