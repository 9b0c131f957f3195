package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_reports (
  id                VARCHAR(36)  NOT NULL PRIMARY KEY,
  batch_id          VARCHAR(36)  NOT NULL,
  file_name         VARCHAR(255) NOT NULL,
  analyzed_at       DATETIME(6)  NOT NULL,
  failed            BOOLEAN      NOT NULL DEFAULT FALSE,
  line_count        INT          NOT NULL DEFAULT 0,
  comment_count     INT          NOT NULL DEFAULT 0,
  complex_functions INT          NOT NULL DEFAULT 0,
  security_issues   INT          NOT NULL DEFAULT 0,
  style_issues      INT          NOT NULL DEFAULT 0,
  report            JSON         NOT NULL,
  INDEX idx_file_reports_analyzed_at (analyzed_at),
  INDEX idx_file_reports_batch (batch_id)
);`

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the report table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate file_reports: %w", err)
	}
	return nil
}
