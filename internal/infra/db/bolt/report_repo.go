// Package bolt stores report history in a single bbolt file. It suits the
// command line tool and single-node servers that want history to survive
// restarts without a database server.
package bolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

// Bucket names.
var (
	bucketReports = []byte("reports")
	// key: analyzed_at unix nanos (big endian) + id, value: id
	bucketByTime = []byte("reports_by_time")
)

type ReportRepository struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open creates or opens the bbolt file at path.
func Open(path string) (*ReportRepository, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketReports, bucketByTime} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &ReportRepository{db: db, now: time.Now}, nil
}

// Close closes the database file.
func (r *ReportRepository) Close() error { return r.db.Close() }

func timeKey(t time.Time, id reports.ReportID) []byte {
	k := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(k, uint64(t.UnixNano()))
	return append(k, id...)
}

func (r *ReportRepository) Save(_ context.Context, rec *reports.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", rec.ID, err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		idx := tx.Bucket(bucketByTime)

		// drop the old index entry when a report is overwritten
		if old := b.Get([]byte(rec.ID)); old != nil {
			var prev reports.Record
			if err := json.Unmarshal(old, &prev); err == nil {
				if err := idx.Delete(timeKey(prev.AnalyzedAt, prev.ID)); err != nil {
					return err
				}
			}
		}
		if err := b.Put([]byte(rec.ID), data); err != nil {
			return err
		}
		return idx.Put(timeKey(rec.AnalyzedAt, rec.ID), []byte(rec.ID))
	})
}

func (r *ReportRepository) Get(_ context.Context, id reports.ReportID) (*reports.Record, error) {
	var rec reports.Record
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketReports).Get([]byte(id))
		if data == nil {
			return reports.ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// walk visits records newest first, skipping the first skip entries, until
// fn returns false.
func (r *ReportRepository) walk(skip int, fn func(*reports.Record) bool) error {
	return r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		c := tx.Bucket(bucketByTime).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if skip > 0 {
				skip--
				continue
			}
			data := b.Get(v)
			if data == nil {
				continue
			}
			var rec reports.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decode report %s: %w", v, err)
			}
			if !fn(&rec) {
				return nil
			}
		}
		return nil
	})
}

func (r *ReportRepository) Latest(_ context.Context, limit int) ([]*reports.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	out := make([]*reports.Record, 0, limit)
	err := r.walk(0, func(rec *reports.Record) bool {
		out = append(out, rec)
		return len(out) < limit
	})
	return out, err
}

func (r *ReportRepository) Paginate(_ context.Context, page, pageSize int) (reports.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	var total int64
	if err := r.db.View(func(tx *bbolt.Tx) error {
		total = int64(tx.Bucket(bucketReports).Stats().KeyN)
		return nil
	}); err != nil {
		return reports.PaginatedResult{}, err
	}

	data := make([]*reports.Record, 0, pageSize)
	err := r.walk((page-1)*pageSize, func(rec *reports.Record) bool {
		data = append(data, rec)
		return len(data) < pageSize
	})
	if err != nil {
		return reports.PaginatedResult{}, err
	}
	return reports.NewPage(data, page, pageSize, total), nil
}

func (r *ReportRepository) Summary(_ context.Context, sinceDays int) (reports.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := timeKey(r.now().AddDate(0, 0, -sinceDays), "")

	var s reports.Summary
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReports)
		c := tx.Bucket(bucketByTime).Cursor()
		for k, v := c.Seek(cut); k != nil && bytes.Compare(k, cut) >= 0; k, v = c.Next() {
			data := b.Get(v)
			if data == nil {
				continue
			}
			var rec reports.Record
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decode report %s: %w", v, err)
			}
			s.Files++
			if rec.Failed {
				s.FailedFiles++
			}
			s.Lines += rec.Stats.LineCount
			s.SecurityIssues += rec.Stats.SecurityIssues
			s.StyleIssues += rec.Stats.StyleIssues
		}
		return nil
	})
	return s, err
}
