package db

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"user-api/internal/config"
	"user-api/internal/user"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "mysql"
	cfg.Database.DSN = "whatever"
	if _, err := Open(cfg, zerolog.Nop()); err == nil {
		t.Errorf("expected error for unsupported driver, got nil")
	}
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:db_open_test?mode=memory&cache=shared"
	conn, err := Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !conn.Migrator().HasTable(&user.User{}) {
		t.Fatalf("users table was not created")
	}
	for _, col := range []string{"username", "email", "password", "role", "avatar_url", "created_at", "updated_at"} {
		if !conn.Migrator().HasColumn(&user.User{}, col) {
			t.Errorf("missing column %s", col)
		}
	}
}

// Only runs against a real Postgres instance when TEST_DB_DSN is set.
func TestOpen_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("set TEST_DB_DSN to run real DB test")
	}
	cfg := &config.Config{}
	cfg.Database.Driver = "postgres"
	cfg.Database.DSN = dsn
	conn, err := Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store := user.NewStore(conn)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestGormLogger_LogsQueryErrors(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLogger(zerolog.New(&buf))
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "INSERT INTO users", 0
	}, errors.New("UNIQUE constraint failed: users.email"))
	if !strings.Contains(buf.String(), "query error") {
		t.Errorf("expected query error log, got %q", buf.String())
	}

	buf.Reset()
	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	if buf.Len() != 0 {
		t.Errorf("silent logger should not write, got %q", buf.String())
	}
}
