package mysql

import (
	"encoding/json"
	"strings"

	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

// stringOrDash returns "-" when the input is empty/whitespace
func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row of recordColumns.
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
