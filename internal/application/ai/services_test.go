package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/bryanwahyu/pyaudit/internal/domain/ai"
	"github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
	"github.com/bryanwahyu/pyaudit/internal/infra/db/memory"
)

type stubAdvisor struct {
	out string
	err error
	got string
}

func (s *stubAdvisor) Advise(_ context.Context, r analysis.FileReport) (string, error) {
	s.got = r.FileName
	return s.out, s.err
}

func TestAdvise(t *testing.T) {
	repo := memory.NewReportRepo()
	ctx := context.Background()
	if err := repo.Save(ctx, reports.FromFileReport(analysis.FileReport{ID: "r1", FileName: "a.py"})); err != nil {
		t.Fatal(err)
	}

	adv := &stubAdvisor{out: "{}"}
	svc := NewService(adv, repo)

	out, err := svc.Advise(ctx, "r1")
	if err != nil || out != "{}" || adv.got != "a.py" {
		t.Fatalf("out = %q, err = %v, got = %q", out, err, adv.got)
	}

	if _, err := svc.Advise(ctx, "missing"); !errors.Is(err, reports.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	adv.err = ai.ErrQuotaExceeded
	if _, err := svc.Advise(ctx, "r1"); !errors.Is(err, ai.ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestAdviseNotConfigured(t *testing.T) {
	svc := NewService(nil, memory.NewReportRepo())
	if _, err := svc.Advise(context.Background(), "r1"); !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}
