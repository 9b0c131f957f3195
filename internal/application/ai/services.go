package ai

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/pyaudit/internal/domain/ai"
	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

type Service struct {
	client ai.Advisor
	repo   reports.Repository
}

func NewService(client ai.Advisor, repo reports.Repository) *Service {
	return &Service{client: client, repo: repo}
}

// Advise loads a stored report and asks the advisor about it.
func (s *Service) Advise(ctx context.Context, id reports.ReportID) (string, error) {
	if s.client == nil || s.repo == nil {
		return "", ai.ErrNotConfigured
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	out, err := s.client.Advise(ctx, rec.Report)
	if err != nil {
		return "", fmt.Errorf("advise %s: %w", id, err)
	}
	return out, nil
}
