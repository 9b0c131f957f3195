package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/bryanwahyu/pyaudit/internal/application"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
)

// ErrHistoryDisabled is returned by report queries when no repository is
// configured.
var ErrHistoryDisabled = errors.New("report history disabled")

// Service implements the analysis use-cases. It is safe for concurrent use;
// at most MaxConcurrent batches run at once and everything inside a batch
// runs sequentially.
type Service struct {
	Locator  domain.ToolLocator
	Required []string

	Style    domain.FileTool
	Security domain.FileTool
	Source   domain.SourceAnalyzer
	Probe    domain.PerformanceProbe
	Deps     domain.EnvironmentTool

	Repo      reports.Repository
	Artifacts domain.ArtifactStore
	Clock     application.Clock
	Log       logrus.FieldLogger

	HighComplexity int
	MaxConcurrent  int64

	once  sync.Once
	slots *semaphore.Weighted
}

// DependencyReport is the result of one dependency audit.
type DependencyReport struct {
	domain.ToolOutput
	CheckedAt time.Time `json:"checked_at"`
	Advice    string    `json:"advice"`
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

func (s *Service) required() []string {
	if len(s.Required) == 0 {
		return domain.RequiredTools
	}
	return s.Required
}

// acquire takes a batch slot without waiting.
func (s *Service) acquire() (func(), error) {
	s.once.Do(func() {
		n := s.MaxConcurrent
		if n <= 0 {
			n = 1
		}
		s.slots = semaphore.NewWeighted(n)
	})
	if !s.slots.TryAcquire(1) {
		return nil, domain.ErrBusy
	}
	return func() { s.slots.Release(1) }, nil
}

// CheckTools reports which required executables are resolvable. It
// returns a *domain.MissingToolError when any is missing.
func (s *Service) CheckTools(ctx context.Context) (domain.ToolAvailability, error) {
	names := s.required()
	missing := s.Locator.Missing(names)
	if missing == nil {
		missing = []string{}
	}
	avail := domain.ToolAvailability{Tools: make(map[string]bool, len(names)), Missing: missing}
	for _, n := range names {
		avail.Tools[n] = true
	}
	for _, n := range missing {
		avail.Tools[n] = false
	}
	if len(missing) > 0 {
		return avail, &domain.MissingToolError{Missing: missing}
	}
	return avail, nil
}

// AnalyzeBatch gates on tool availability, then analyzes files one after
// another. A failing analyzer is recorded in that file's report and the
// batch goes on; only a cancelled context stops it early.
func (s *Service) AnalyzeBatch(ctx context.Context, files []domain.UploadedFile) (domain.BatchReport, error) {
	if len(files) == 0 {
		return domain.BatchReport{}, domain.ErrNoFiles
	}
	release, err := s.acquire()
	if err != nil {
		return domain.BatchReport{}, err
	}
	defer release()

	if _, err := s.CheckTools(ctx); err != nil {
		return domain.BatchReport{}, err
	}

	batch := domain.BatchReport{
		ID:        uuid.NewString(),
		StartedAt: s.clock().Now(),
		Files:     make([]domain.FileReport, 0, len(files)),
	}
	log := s.logger().WithField("batch", batch.ID)
	log.WithField("files", len(files)).Info("batch started")

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("batch cancelled")
			return batch, err
		}
		batch.Files = append(batch.Files, s.AnalyzeFile(ctx, batch.ID, f))
	}
	batch.FinishedAt = s.clock().Now()

	if url, err := s.archive(ctx, batch); err != nil {
		log.WithError(err).Warn("archive batch report")
	} else {
		batch.ArchiveURL = url
	}
	log.WithField("duration", batch.FinishedAt.Sub(batch.StartedAt)).Info("batch finished")
	return batch, nil
}

// AnalyzeFile runs style, complexity, security, comment and performance
// analysis for one file, strictly in that order.
func (s *Service) AnalyzeFile(ctx context.Context, batchID string, f domain.UploadedFile) domain.FileReport {
	start := s.clock().Now()
	rep := domain.FileReport{
		ID:         uuid.NewString(),
		BatchID:    batchID,
		FileName:   f.Name,
		AnalyzedAt: start,
	}
	log := s.logger().WithFields(logrus.Fields{"batch": batchID, "file": f.Name})
	begin := time.Now()

	rep.Style = s.runFileTool(ctx, s.Style, f, log)

	fns, err := s.Source.Complexity(f)
	if err != nil {
		log.WithError(err).Warn("complexity analysis failed")
		rep.Complexity = domain.ComplexitySection{Functions: []domain.FunctionComplexity{}, Error: err.Error()}
	} else {
		rep.Complexity = domain.ComplexitySection{Functions: fns}
	}

	rep.Security = s.runFileTool(ctx, s.Security, f, log)

	comments, err := s.Source.Comments(f)
	if err != nil {
		log.WithError(err).Warn("comment analysis failed")
		rep.Comments = domain.CommentSection{Comments: []string{}, Error: err.Error()}
	} else {
		rep.Comments = domain.CommentSection{Comments: comments}
	}

	rep.Performance = s.measure(ctx, f, log)

	rep.Stats = domain.Stats{
		LineCount:               domain.CountLines(f.Content),
		CommentCount:            len(rep.Comments.Comments),
		ComplexFunctions:        len(rep.Complexity.Functions),
		SecurityIssues:          rep.Security.Lines(),
		HighComplexityFunctions: s.countHighComplexity(rep.Complexity.Functions),
		StyleIssues:             domain.CountStyleIssues(rep.Style.Output),
		SecuritySeverity:        domain.ParseBanditSeverity(rep.Security.Output),
	}
	rep.DurationMS = time.Since(begin).Milliseconds()

	if s.Repo != nil {
		if err := s.Repo.Save(ctx, reports.FromFileReport(rep)); err != nil {
			log.WithError(err).Warn("save report")
		}
	}
	log.WithFields(logrus.Fields{
		"lines":    rep.Stats.LineCount,
		"failed":   rep.Failed(),
		"duration": rep.DurationMS,
	}).Info("file analyzed")
	return rep
}

func (s *Service) runFileTool(ctx context.Context, t domain.FileTool, f domain.UploadedFile, log logrus.FieldLogger) domain.ToolOutput {
	out, err := t.Run(ctx, f)
	if out.Tool == "" {
		out.Tool = t.Name()
	}
	if err != nil {
		log.WithError(err).WithField("tool", t.Name()).Warn("tool failed")
		out.Error = err.Error()
	}
	return out
}

func (s *Service) measure(ctx context.Context, f domain.UploadedFile, log logrus.FieldLogger) domain.PerformanceSection {
	if s.Probe == nil {
		return domain.PerformanceSection{Note: "Performance analysis disabled"}
	}
	sec, err := s.Probe.Measure(ctx, f)
	if err == nil {
		return sec
	}
	msg := err.Error()
	var (
		ee *domain.ExecutionError
		te *domain.ToolError
	)
	switch {
	case errors.As(err, &ee):
		msg = ee.Message
	case errors.As(err, &te) && te.Err != nil:
		msg = te.Err.Error()
		log.WithError(err).Warn("performance probe failed")
	default:
		log.WithError(err).Warn("performance probe failed")
	}
	return domain.PerformanceSection{Note: domain.ErrorNote(msg), Error: msg}
}

func (s *Service) countHighComplexity(fns []domain.FunctionComplexity) int {
	threshold := s.HighComplexity
	if threshold <= 0 {
		threshold = 10
	}
	n := 0
	for _, fn := range fns {
		if fn.Complexity >= threshold {
			n++
		}
	}
	return n
}

func (s *Service) archive(ctx context.Context, batch domain.BatchReport) (string, error) {
	if s.Artifacts == nil {
		return "", nil
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}
	key := fmt.Sprintf("batches/%s/%s.json", batch.StartedAt.Format("2006-01-02"), batch.ID)
	return s.Artifacts.PutJSON(ctx, key, data)
}

// AuditDependencies runs the dependency checker against the installed
// environment. It is gated on tool availability like AnalyzeBatch; a tool
// failure is reported inside the result.
func (s *Service) AuditDependencies(ctx context.Context) (DependencyReport, error) {
	if s.Deps == nil {
		return DependencyReport{}, errors.New("dependency auditor not configured")
	}
	if _, err := s.CheckTools(ctx); err != nil {
		return DependencyReport{}, err
	}
	out, err := s.Deps.Run(ctx)
	if out.Tool == "" {
		out.Tool = s.Deps.Name()
	}
	if err != nil {
		s.logger().WithError(err).Warn("dependency audit failed")
		out.Error = err.Error()
	}
	return DependencyReport{ToolOutput: out, CheckedAt: s.clock().Now(), Advice: domain.AdviceDependencies}, nil
}

// Latest ambil N report terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*reports.Record, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Repo.Latest(ctx, limit)
}

// Get ambil 1 report by id
func (s *Service) Get(ctx context.Context, id reports.ReportID) (*reports.Record, error) {
	if s.Repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.Repo.Get(ctx, id)
}

// Page returns one page of stored reports, newest first.
func (s *Service) Page(ctx context.Context, page, pageSize int) (reports.PaginatedResult, error) {
	if s.Repo == nil {
		return reports.PaginatedResult{}, ErrHistoryDisabled
	}
	return s.Repo.Paginate(ctx, page, pageSize)
}

// Summary rekap hasil analisis N hari terakhir
func (s *Service) Summary(ctx context.Context, sinceDays int) (reports.Summary, error) {
	if s.Repo == nil {
		return reports.Summary{}, ErrHistoryDisabled
	}
	return s.Repo.Summary(ctx, sinceDays)
}
