package store

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestNormalizeMySQLDSN_ForcesUTCAndTimeZone(t *testing.T) {
	t.Parallel()

	got, err := normalizeMySQLDSN("user:pass@tcp(127.0.0.1:3306)/bangumi?charset=utf8mb4&loc=Local")
	if err != nil {
		t.Fatalf("normalizeMySQLDSN: %v", err)
	}

	cfg, err := mysql.ParseDSN(got)
	if err != nil {
		t.Fatalf("mysql.ParseDSN(normalized): %v", err)
	}
	if !cfg.ParseTime {
		t.Fatalf("ParseTime = false, want true")
	}
	if cfg.Loc != time.UTC {
		t.Fatalf("Loc = %v, want UTC", cfg.Loc)
	}
	if cfg.Params["time_zone"] != "'+00:00'" {
		t.Fatalf("time_zone = %q, want %q", cfg.Params["time_zone"], "'+00:00'")
	}
	if cfg.DBName != "bangumi" {
		t.Fatalf("DBName = %q, want bangumi", cfg.DBName)
	}
}

func TestNormalizeMySQLDSN_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := normalizeMySQLDSN("not a dsn"); err == nil {
		t.Fatalf("expected error for invalid dsn")
	}
}

func TestIsAccessDeniedError(t *testing.T) {
	t.Parallel()

	if !isAccessDeniedError(&mysql.MySQLError{Number: 1045}) {
		t.Fatalf("expected 1045 to be access denied")
	}
	if isAccessDeniedError(&mysql.MySQLError{Number: 1146}) {
		t.Fatalf("expected 1146 not to be access denied")
	}
}
