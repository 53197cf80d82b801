// Package dbtest opens in-memory sqlite databases carrying the reminder schema.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// The production schema lives in pkg/migrate/migrations and targets Postgres.
// These statements mirror it with sqlite column types.
var schema = []string{
	`CREATE TABLE companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  two_way_phone_number TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE associates (
  id TEXT PRIMARY KEY,
  company_id TEXT,
  first_name TEXT NOT NULL,
  last_name TEXT,
  phone_number TEXT NOT NULL,
  opted_out INTEGER NOT NULL DEFAULT 0,
  sms_opt_out_at DATETIME,
  two_way_opt_out_at DATETIME,
  opted_in_at DATETIME,
  opt_out_disclosure_sent_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE jobs (
  id TEXT PRIMARY KEY,
  company_id TEXT,
  title TEXT NOT NULL,
  customer_name TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE job_assignments (
  job_id TEXT NOT NULL,
  associate_id TEXT NOT NULL,
  work_date DATE NOT NULL,
  start_time TEXT,
  num_reminders INTEGER NOT NULL DEFAULT 0 CHECK (num_reminders >= 0),
  last_reminder_time DATETIME,
  last_confirmation_time DATETIME,
  confirmation_status TEXT NOT NULL DEFAULT 'UNCONFIRMED',
  created_at DATETIME,
  updated_at DATETIME,
  PRIMARY KEY (job_id, associate_id)
);`,
}

// New returns an isolated database with the schema applied.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}
