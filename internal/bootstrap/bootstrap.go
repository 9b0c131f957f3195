// Package bootstrap builds the analysis stack from configuration. It is
// shared by the HTTP server and the command line tool.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/pyaudit/internal/application"
	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	"github.com/bryanwahyu/pyaudit/internal/config"
	domai "github.com/bryanwahyu/pyaudit/internal/domain/ai"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
	"github.com/bryanwahyu/pyaudit/internal/infra/ai/ollama"
	"github.com/bryanwahyu/pyaudit/internal/infra/ai/openai"
	"github.com/bryanwahyu/pyaudit/internal/infra/ai/prompt"
	boltrepo "github.com/bryanwahyu/pyaudit/internal/infra/db/bolt"
	"github.com/bryanwahyu/pyaudit/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/pyaudit/internal/infra/db/mysql"
	"github.com/bryanwahyu/pyaudit/internal/infra/db/postgres"
	dockerrunner "github.com/bryanwahyu/pyaudit/internal/infra/executor/docker"
	"github.com/bryanwahyu/pyaudit/internal/infra/executor/local"
	"github.com/bryanwahyu/pyaudit/internal/infra/pyast"
	minioStore "github.com/bryanwahyu/pyaudit/internal/infra/storage"
	"github.com/bryanwahyu/pyaudit/internal/middleware"
)

// Stack is everything built from one config.
type Stack struct {
	Service *appanalysis.Service
	Repo    reports.Repository
	Health  map[string]middleware.HealthChecker

	closers []io.Closer
}

// Close releases database handles.
func (s *Stack) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build connects storage backends and assembles the analysis service.
func Build(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Stack, error) {
	st := &Stack{Health: map[string]middleware.HealthChecker{}}

	repo, err := st.openRepository(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.Repo = repo

	// init minio
	var artifacts domain.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("minio init: %w", err)
		}
		artifacts = store
		st.Health["storage"] = middleware.CheckFunc(store.Ping)
	}

	toolRunner := local.NewRunner(cfg.Tools.Timeout)
	probeRunner := local.NewRunner(cfg.Probe.Timeout)

	var probe domain.PerformanceProbe
	switch cfg.Probe.Mode {
	case "docker":
		probe = dockerrunner.NewRunner(cfg.Probe.Image, cfg.Probe.Memory, cfg.Probe.CPUs, cfg.Tools.TempDir, probeRunner)
	case "subprocess":
		probe = &local.SubprocessProbe{Python: cfg.Probe.Python, Runner: probeRunner, TempDir: cfg.Tools.TempDir}
	}

	svc := &appanalysis.Service{
		Locator: local.Locator{Paths: map[string]string{
			domain.ToolFlake8: cfg.Tools.Flake8,
			domain.ToolBandit: cfg.Tools.Bandit,
			domain.ToolSafety: cfg.Tools.Safety,
		}},
		Style:          local.NewFlake8(cfg.Tools.Flake8, toolRunner, cfg.Tools.TempDir),
		Security:       local.NewBandit(cfg.Tools.Bandit, toolRunner, cfg.Tools.TempDir),
		Source:         pyast.New(),
		Probe:          probe,
		Deps:           local.NewSafety(cfg.Tools.Safety, toolRunner),
		Repo:           repo,
		Artifacts:      artifacts,
		Clock:          application.SystemClock{},
		Log:            log,
		HighComplexity: cfg.Thresholds.HighComplexity,
		MaxConcurrent:  cfg.Server.MaxConcurrentBatches,
	}
	st.Health["tools"] = middleware.CheckFunc(func(ctx context.Context) error {
		_, err := svc.CheckTools(ctx)
		return err
	})
	st.Service = svc
	return st, nil
}

func (st *Stack) openRepository(ctx context.Context, cfg *config.Config) (reports.Repository, error) {
	switch cfg.Database.Driver {
	case "":
		return memory.NewReportRepo(), nil
	case "bolt":
		repo, err := boltrepo.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("bolt open %s: %w", cfg.Database.Path, err)
		}
		st.closers = append(st.closers, repo)
		return repo, nil
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		st.closers = append(st.closers, db)
		if err := mysqlp.Migrate(ctx, db); err != nil {
			return nil, err
		}
		st.Health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return mysqlp.NewReportRepository(db), nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		st.closers = append(st.closers, db)
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		st.Health["database"] = &middleware.DatabaseHealthChecker{DB: db}
		return postgres.NewReportRepository(db), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}

// Advisor picks the advice backend: OpenAI when a key is set, then Ollama
// when a host is set, otherwise the local rule-based advisor. The returned
// name is for logs.
func Advisor(cfg *config.Config) (domai.Advisor, string, error) {
	switch {
	case cfg.OpenAI.APIKey != "":
		return openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model), "openai", nil
	case cfg.Ollama.Host != "":
		c, err := ollama.NewClient(cfg.Ollama.Host, cfg.Ollama.Model)
		if err != nil {
			return nil, "", err
		}
		return c, "ollama", nil
	}
	return prompt.Local{HighComplexity: cfg.Thresholds.HighComplexity}, "local", nil
}
