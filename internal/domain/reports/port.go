package reports

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = errors.New("report not found")

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Get(ctx context.Context, id ReportID) (*Record, error)
	Latest(ctx context.Context, limit int) ([]*Record, error)
	Paginate(ctx context.Context, page, pageSize int) (PaginatedResult, error)
	Summary(ctx context.Context, sinceDays int) (Summary, error)
}
