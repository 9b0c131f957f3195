package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

const recordColumns = `id, batch_id, file_name, analyzed_at, failed, report`

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save insert/update report record
func (r *ReportRepository) Save(ctx context.Context, rec *reports.Record) error {
	const q = `
INSERT INTO file_reports
(id, batch_id, file_name, analyzed_at, failed,
 line_count, comment_count, complex_functions, security_issues, style_issues, report)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
 failed = EXCLUDED.failed,
 line_count = EXCLUDED.line_count,
 comment_count = EXCLUDED.comment_count,
 complex_functions = EXCLUDED.complex_functions,
 security_issues = EXCLUDED.security_issues,
 style_issues = EXCLUDED.style_issues,
 report = EXCLUDED.report;`

	raw, err := json.Marshal(rec.Report)
	if err != nil {
		return err
	}
	analyzed := rec.AnalyzedAt
	if analyzed.IsZero() {
		analyzed = time.Now().UTC()
	}
	st := rec.Stats
	_, err = r.db.ExecContext(ctx, q,
		rec.ID, orDash(rec.BatchID), orDash(rec.FileName), analyzed, rec.Failed,
		st.LineCount, st.CommentCount, st.ComplexFunctions, st.SecurityIssues, st.StyleIssues, string(raw),
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id reports.ReportID) (*reports.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM file_reports WHERE id=$1 LIMIT 1;`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reports.ErrNotFound
	}
	return rec, err
}

// Latest reports, newest first
func (r *ReportRepository) Latest(ctx context.Context, limit int) ([]*reports.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT ` + recordColumns + ` FROM file_reports ORDER BY analyzed_at DESC LIMIT $1;`
	return r.query(ctx, q, limit)
}

// Paginate with offset + limit
func (r *ReportRepository) Paginate(ctx context.Context, page, pageSize int) (reports.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_reports;`).Scan(&total); err != nil {
		return reports.PaginatedResult{}, err
	}
	q := `SELECT ` + recordColumns + ` FROM file_reports ORDER BY analyzed_at DESC LIMIT $1 OFFSET $2;`
	data, err := r.query(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return reports.PaginatedResult{}, err
	}
	return reports.NewPage(data, page, pageSize, total), nil
}

// Summary aggregates reports since N days
func (r *ReportRepository) Summary(ctx context.Context, sinceDays int) (reports.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().UTC().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN failed THEN 1 ELSE 0 END),0),
       COALESCE(SUM(line_count),0),
       COALESCE(SUM(security_issues),0),
       COALESCE(SUM(style_issues),0)
FROM file_reports
WHERE analyzed_at >= $1;`
	var s reports.Summary
	err := r.db.QueryRowContext(ctx, q, cut).Scan(&s.Files, &s.FailedFiles, &s.Lines, &s.SecurityIssues, &s.StyleIssues)
	return s, err
}

func (r *ReportRepository) query(ctx context.Context, q string, args ...any) ([]*reports.Record, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*reports.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*reports.Record, error) {
	var rec reports.Record
	var raw []byte
	if err := row.Scan(&rec.ID, &rec.BatchID, &rec.FileName, &rec.AnalyzedAt, &rec.Failed, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &rec.Report); err != nil {
		return nil, err
	}
	rec.Stats = rec.Report.Stats
	return &rec, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
