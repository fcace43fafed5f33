// Package store 是鉴权子系统的权威数据源：用户、用户组权限、OAuth access token 与 Web 会话。
package store

import (
	"database/sql"
	"strings"
)

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB) *Store {
	return &Store{
		db:      db,
		dialect: DialectMySQL,
	}
}

func (s *Store) SetDialect(d Dialect) {
	if strings.TrimSpace(string(d)) == "" {
		return
	}
	s.dialect = d
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}
