package reports

import (
	"time"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// ReportID tipe untuk FileReport yang tersimpan
type ReportID string

// Record is a persisted file report. Source text is never stored.
type Record struct {
	ID         ReportID            `json:"id"`
	BatchID    string              `json:"batch_id"`
	FileName   string              `json:"file_name"`
	AnalyzedAt time.Time           `json:"analyzed_at"`
	Failed     bool                `json:"failed"`
	Stats      analysis.Stats      `json:"stats"`
	Report     analysis.FileReport `json:"report"`
}

// FromFileReport builds a Record from an analysis result.
func FromFileReport(r analysis.FileReport) *Record {
	return &Record{
		ID:         ReportID(r.ID),
		BatchID:    r.BatchID,
		FileName:   r.FileName,
		AnalyzedAt: r.AnalyzedAt,
		Failed:     r.Failed(),
		Stats:      r.Stats,
		Report:     r,
	}
}

// Summary aggregates reports over a time window.
type Summary struct {
	Files          int `json:"files"`
	FailedFiles    int `json:"failed_files"`
	Lines          int `json:"lines"`
	SecurityIssues int `json:"security_issues"`
	StyleIssues    int `json:"style_issues"`
}
