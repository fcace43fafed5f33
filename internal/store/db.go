// Package store 负责数据库连接与迁移，避免业务层直接处理 schema 细节。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

func OpenDB(env string, driver string, mysqlDSN string, sqlitePath string) (*sql.DB, Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(driver))) {
	case DialectSQLite:
		db, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, "", err
		}
		return db, DialectSQLite, nil
	case DialectMySQL:
		db, err := OpenMySQL(env, mysqlDSN)
		if err != nil {
			return nil, "", err
		}
		return db, DialectMySQL, nil
	default:
		return nil, "", fmt.Errorf("不支持的 db.driver：%s", driver)
	}
}

// OpenMySQL 打开 MySQL 连接。dev 环境下会等待数据库就绪（容器启动竞态），其他环境只 ping 一次。
func OpenMySQL(env string, dsn string) (*sql.DB, error) {
	normalized, err := normalizeMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	maxWait := time.Duration(0)
	if env == "dev" {
		maxWait = 30 * time.Second
	}
	if err := pingMySQL(db, maxWait); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func OpenSQLite(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite_path 不能为空")
	}

	// 允许通过 query 参数传递 driver 选项（例如 ?_busy_timeout=30000），这里需要先确保文件目录存在。
	filePath, _, _ := strings.Cut(path, "?")
	if filePath != "" && filePath != ":memory:" && !strings.HasPrefix(filePath, "file::memory:") {
		if dir := filepath.Dir(filePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("创建 sqlite 数据目录失败: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql.Open(sqlite): %w", err)
	}
	// SQLite 多连接写入容易触发锁竞争；:memory: 库也必须单连接，否则每个连接各是一份空库。
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping(sqlite): %w", err)
	}
	_, _ = db.Exec(`PRAGMA journal_mode=WAL`)
	return db, nil
}

// normalizeMySQLDSN 强制 parseTime 与 UTC：access token 的 expires 是 TIMESTAMP，
// 连接时区与 Go 侧 time.Location 不一致会让过期判断整体偏移。
func normalizeMySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql.ParseDSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["time_zone"] = "'+00:00'"
	return cfg.FormatDSN(), nil
}

func pingMySQL(db *sql.DB, maxWait time.Duration) error {
	const maxBackoff = 2 * time.Second

	deadline := time.Now().Add(maxWait)
	backoff := 200 * time.Millisecond
	waitLogged := false
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := db.PingContext(ctx)
		cancel()
		if err == nil {
			return nil
		}
		// 明确的配置错误：别浪费时间重试。
		if isAccessDeniedError(err) || !time.Now().Before(deadline) {
			return fmt.Errorf("db.Ping: %w", err)
		}
		if !waitLogged {
			slog.Info("等待 MySQL 就绪（dev）", "timeout", maxWait.String())
			waitLogged = true
		}
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}

func isAccessDeniedError(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	// 1045: ER_ACCESS_DENIED_ERROR
	// 1044: ER_DBACCESS_DENIED_ERROR
	return myErr.Number == 1045 || myErr.Number == 1044
}
