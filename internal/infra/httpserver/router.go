package httpserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appai "github.com/bryanwahyu/pyaudit/internal/application/ai"
	appanalysis "github.com/bryanwahyu/pyaudit/internal/application/analysis"
	domai "github.com/bryanwahyu/pyaudit/internal/domain/ai"
	domain "github.com/bryanwahyu/pyaudit/internal/domain/analysis"
	"github.com/bryanwahyu/pyaudit/internal/domain/reports"
	"github.com/bryanwahyu/pyaudit/internal/middleware"
)

//go:embed web/index.html
var indexHTML []byte

// Options wires the router. Analysis is required; the rest is optional.
type Options struct {
	Analysis *appanalysis.Service
	Advice   *appai.Service
	Metrics  *middleware.Metrics
	Log      logrus.FieldLogger
	Health   map[string]middleware.HealthChecker
	APIKeys  map[string]string
	Limiter  *middleware.RateLimiter

	AllowedOrigins []string
	MaxUploadBytes int64
	MaxFiles       int
}

type Router struct {
	analysis *appanalysis.Service
	advice   *appai.Service
	metrics  *middleware.Metrics
	log      logrus.FieldLogger
	maxBytes int64
	maxFiles int
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analysis: opts.Analysis,
		advice:   opts.Advice,
		metrics:  opts.Metrics,
		log:      opts.Log,
		maxBytes: opts.MaxUploadBytes,
		maxFiles: opts.MaxFiles,
	}
	if r.metrics == nil {
		r.metrics = middleware.NewMetrics()
	}
	if r.log == nil {
		r.log = logrus.StandardLogger()
	}
	if r.maxBytes <= 0 {
		r.maxBytes = 8 << 20
	}
	if r.maxFiles <= 0 {
		r.maxFiles = 20
	}

	mux := chi.NewRouter()
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.RequestLogger(r.log))
	mux.Use(r.metrics.Middleware)
	if len(opts.AllowedOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
			MaxAge:         300,
		}))
	}

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})
	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Health))
	mux.Get("/metrics", r.metrics.Handler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.Limiter != nil {
			rt.Use(middleware.RateLimit(opts.Limiter))
		}
		rt.Get("/tools", r.wrap(r.handleTools))
		rt.Get("/checklist", r.wrap(r.handleChecklist))
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/dependencies/check", r.wrap(r.handleDependencies))
		rt.Get("/reports", r.wrap(r.handleReports))
		rt.Get("/reports/latest", r.wrap(r.handleLatest))
		rt.Get("/reports/{id}", r.wrap(r.handleGet))
		rt.Post("/reports/{id}/advice", r.wrap(r.handleAdvice))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

// httpError carries a status chosen by the handler.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var he *httpError
		var mte *domain.MissingToolError
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &he):
			writeJSON(w, he.status, map[string]string{"error": he.msg})
		case errors.As(err, &mte):
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": mte.Error(), "missing": mte.Missing})
		case errors.As(err, &mbe):
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("upload exceeds %d bytes", mbe.Limit)})
		case errors.Is(err, domain.ErrNoFiles):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, domain.ErrBusy):
			w.Header().Set("Retry-After", "5")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		case errors.Is(err, reports.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case errors.Is(err, appanalysis.ErrHistoryDisabled), errors.Is(err, domai.ErrNotConfigured):
			writeJSON(w, http.StatusNotImplemented, map[string]string{"error": err.Error()})
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ai quota exceeded"})
		case errors.Is(err, context.Canceled):
			// client went away
		case errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": err.Error()})
		default:
			r.log.WithError(err).WithField("path", req.URL.Path).Error("request failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// GET /v1/tools
func (r *Router) handleTools(w http.ResponseWriter, req *http.Request) error {
	avail, _ := r.analysis.CheckTools(req.Context())
	return writeJSON(w, http.StatusOK, map[string]any{
		"ok":      avail.OK(),
		"tools":   avail.Tools,
		"missing": avail.Missing,
	})
}

// GET /v1/checklist
func (r *Router) handleChecklist(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]any{
		"items": domain.Checklist,
		"panels": map[string]string{
			"style":        domain.AdviceStyle,
			"complexity":   domain.AdviceComplexity,
			"security":     domain.AdviceSecurity,
			"comments":     domain.AdviceComments,
			"performance":  domain.AdvicePerformance,
			"dependencies": domain.AdviceDependencies,
		},
	})
}

// POST /v1/analyze (multipart, field "files")
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	files, err := r.readUploads(w, req)
	if err != nil {
		return err
	}

	done := r.metrics.BatchStarted()
	batch, err := r.analysis.AnalyzeBatch(req.Context(), files)
	done()
	if err != nil {
		if errors.Is(err, domain.ErrBusy) {
			r.metrics.BatchesRejected.Add(1)
		}
		return err
	}
	for i := range batch.Files {
		r.metrics.FileDone(batch.Files[i].Failed())
	}
	return writeJSON(w, http.StatusOK, batch)
}

// readUploads keeps the whole multipart body in memory so that uploaded
// bytes never touch the disk outside the per-tool temp directories.
func (r *Router) readUploads(w http.ResponseWriter, req *http.Request) ([]domain.UploadedFile, error) {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBytes)
	if err := req.ParseMultipartForm(r.maxBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, mbe
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}
	defer req.MultipartForm.RemoveAll()

	headers := req.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, domain.ErrNoFiles
	}
	if len(headers) > r.maxFiles {
		return nil, badRequest("too many files: %d (max %d)", len(headers), r.maxFiles)
	}

	seen := make(map[string]bool, len(headers))
	files := make([]domain.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		name := fh.Filename
		if err := middleware.ValidateFileName(name); err != nil {
			return nil, badRequest("%v", err)
		}
		if seen[name] {
			return nil, badRequest("duplicate file name %q", name)
		}
		seen[name] = true

		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		content, err := middleware.ValidateContent(name, data)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		files = append(files, domain.UploadedFile{Name: name, Content: content})
	}
	return files, nil
}

// POST /v1/dependencies/check
func (r *Router) handleDependencies(w http.ResponseWriter, req *http.Request) error {
	rep, err := r.analysis.AuditDependencies(req.Context())
	if err != nil {
		return err
	}
	r.metrics.DependencyAudits.Add(1)
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/reports?page=&page_size=
func (r *Router) handleReports(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	page, size = middleware.ValidatePage(page, size)

	res, err := r.analysis.Page(req.Context(), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/reports/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysis.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest("%v", err)
	}

	rec, err := r.analysis.Get(req.Context(), reports.ReportID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// POST /v1/reports/{id}/advice
func (r *Router) handleAdvice(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return badRequest("%v", err)
	}
	if r.advice == nil {
		return domai.ErrNotConfigured
	}

	out, err := r.advice.Advise(req.Context(), reports.ReportID(id))
	if err != nil {
		return err
	}
	resp := map[string]any{"report_id": id}
	if json.Valid([]byte(out)) {
		resp["advice"] = json.RawMessage(out)
	} else {
		resp["advice"] = out
	}
	return writeJSON(w, http.StatusOK, resp)
}

// GET /v1/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.analysis.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"days": days, "summary": summary})
}
