// Package memory keeps report history in process. It is the default
// repository when no database driver is configured; history is lost on
// restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

// DefaultCapacity bounds how many records are kept.
const DefaultCapacity = 1000

type ReportRepo struct {
	mu       sync.RWMutex
	byID     map[reports.ReportID]*reports.Record
	order    []reports.ReportID // oldest first
	capacity int
	now      func() time.Time
}

func NewReportRepo() *ReportRepo { return NewReportRepoWithCapacity(DefaultCapacity) }

// NewReportRepoWithCapacity evicts the oldest record once n are stored.
func NewReportRepoWithCapacity(n int) *ReportRepo {
	if n <= 0 {
		n = DefaultCapacity
	}
	return &ReportRepo{
		byID:     make(map[reports.ReportID]*reports.Record),
		capacity: n,
		now:      time.Now,
	}
}

func (r *ReportRepo) Save(_ context.Context, rec *reports.Record) error {
	cp := *rec
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[rec.ID]; !ok {
		r.order = append(r.order, rec.ID)
	}
	r.byID[rec.ID] = &cp
	for len(r.order) > r.capacity {
		delete(r.byID, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *ReportRepo) Get(_ context.Context, id reports.ReportID) (*reports.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byID[id]
	if !ok {
		return nil, reports.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// sorted returns copies newest first.
func (r *ReportRepo) sorted() []*reports.Record {
	r.mu.RLock()
	out := make([]*reports.Record, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := *r.byID[r.order[i]]
		out = append(out, &cp)
	}
	r.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].AnalyzedAt.After(out[j].AnalyzedAt) })
	return out
}

func (r *ReportRepo) Latest(_ context.Context, limit int) ([]*reports.Record, error) {
	if limit <= 0 {
		limit = 20
	}
	all := r.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *ReportRepo) Paginate(_ context.Context, page, pageSize int) (reports.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	all := r.sorted()
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := min(start+pageSize, len(all))
	return reports.NewPage(all[start:end], page, pageSize, int64(len(all))), nil
}

func (r *ReportRepo) Summary(_ context.Context, sinceDays int) (reports.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := r.now().AddDate(0, 0, -sinceDays)

	var s reports.Summary
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.byID {
		if rec.AnalyzedAt.Before(cut) {
			continue
		}
		s.Files++
		if rec.Failed {
			s.FailedFiles++
		}
		s.Lines += rec.Stats.LineCount
		s.SecurityIssues += rec.Stats.SecurityIssues
		s.StyleIssues += rec.Stats.StyleIssues
	}
	return s, nil
}
