package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

const recordColumns = `id, batch_id, file_name, analyzed_at, failed, report`

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update report record
func (r *ReportRepository) Save(ctx context.Context, rec *reports.Record) error {
	const q = `
INSERT INTO file_reports
(id, batch_id, file_name, analyzed_at, failed,
 line_count, comment_count, complex_functions, security_issues, style_issues, report)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 failed=VALUES(failed),
 line_count=VALUES(line_count), comment_count=VALUES(comment_count),
 complex_functions=VALUES(complex_functions), security_issues=VALUES(security_issues),
 style_issues=VALUES(style_issues), report=VALUES(report);
`
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
		rec.ID, stringOrDash(rec.BatchID), stringOrDash(rec.FileName), analyzed, rec.Failed,
		st.LineCount, st.CommentCount, st.ComplexFunctions, st.SecurityIssues, st.StyleIssues, raw,
	)
	return err
}

// Get by ID
func (r *ReportRepository) Get(ctx context.Context, id reports.ReportID) (*reports.Record, error) {
	q := `SELECT ` + recordColumns + ` FROM file_reports WHERE id=? LIMIT 1;`
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
	q := `SELECT ` + recordColumns + ` FROM file_reports ORDER BY analyzed_at DESC LIMIT ?;`
	return r.query(ctx, q, limit)
}

// Paginate with offset + limit (classic pagination)
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
	q := `SELECT ` + recordColumns + ` FROM file_reports ORDER BY analyzed_at DESC LIMIT ? OFFSET ?;`
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
       COALESCE(SUM(failed),0),
       COALESCE(SUM(line_count),0),
       COALESCE(SUM(security_issues),0),
       COALESCE(SUM(style_issues),0)
FROM file_reports
WHERE analyzed_at >= ?;
`
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
