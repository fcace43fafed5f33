package main

import (
	"database/sql"
	"fmt"

	"chii/internal/config"
	"chii/internal/store"
)

// openStore 连接数据库并确保鉴权所需的表存在。
func openStore(cfg config.Config) (*sql.DB, error) {
	db, dialect, err := store.OpenDB(cfg.Env, cfg.DB.Driver, cfg.DB.DSN, cfg.DB.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	switch dialect {
	case store.DialectMySQL:
		err = store.ApplyMigrations(db)
	case store.DialectSQLite:
		err = store.EnsureSQLiteSchema(db)
	default:
		err = fmt.Errorf("未知数据库方言: %s", dialect)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
