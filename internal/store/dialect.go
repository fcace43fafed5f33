package store

// Dialect 表示数据库方言，用于处理 MySQL/SQLite 的 SQL 语法差异。
type Dialect string

const (
	DialectMySQL  Dialect = "mysql"
	DialectSQLite Dialect = "sqlite"
)

func upsertUserGroupSQL(d Dialect) string {
	if d == DialectSQLite {
		return `
INSERT INTO chii_usergroup(usr_grp_id, usr_grp_name, usr_grp_perm, usr_grp_dateline)
VALUES(?, ?, ?, ?)
ON CONFLICT(usr_grp_id) DO UPDATE SET
  usr_grp_name=excluded.usr_grp_name,
  usr_grp_perm=excluded.usr_grp_perm,
  usr_grp_dateline=excluded.usr_grp_dateline
`
	}
	return `
INSERT INTO chii_usergroup(usr_grp_id, usr_grp_name, usr_grp_perm, usr_grp_dateline)
VALUES(?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  usr_grp_name=VALUES(usr_grp_name),
  usr_grp_perm=VALUES(usr_grp_perm),
  usr_grp_dateline=VALUES(usr_grp_dateline)
`
}
