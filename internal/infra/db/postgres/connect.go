package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS file_reports (
  id                VARCHAR(36)  PRIMARY KEY,
  batch_id          VARCHAR(36)  NOT NULL,
  file_name         VARCHAR(255) NOT NULL,
  analyzed_at       TIMESTAMPTZ  NOT NULL,
  failed            BOOLEAN      NOT NULL DEFAULT FALSE,
  line_count        INTEGER      NOT NULL DEFAULT 0,
  comment_count     INTEGER      NOT NULL DEFAULT 0,
  complex_functions INTEGER      NOT NULL DEFAULT 0,
  security_issues   INTEGER      NOT NULL DEFAULT 0,
  style_issues      INTEGER      NOT NULL DEFAULT 0,
  report            JSONB        NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_file_reports_analyzed_at ON file_reports (analyzed_at);
CREATE INDEX IF NOT EXISTS idx_file_reports_batch ON file_reports (batch_id);`

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the report table and its indexes when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate file_reports: %w", err)
	}
	return nil
}
