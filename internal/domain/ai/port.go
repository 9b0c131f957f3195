package ai

import (
	"context"

	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
)

// Advisor turns a file report into improvement advice.
type Advisor interface {
	Advise(ctx context.Context, r analysis.FileReport) (string, error)
}
