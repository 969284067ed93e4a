// Package preview is the consumer-facing entry point: it feeds document
// changes to the measurement orchestrator and turns measurements into a
// paginated, audited result.
package preview

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jackzampolin/pagefit/internal/audit"
	"github.com/jackzampolin/pagefit/internal/cache"
	"github.com/jackzampolin/pagefit/internal/measure"
	"github.com/jackzampolin/pagefit/internal/paginate"
	"github.com/jackzampolin/pagefit/internal/surface"
	"github.com/jackzampolin/pagefit/internal/types"
)

// Advisor proposes extra suggestions for a pagination result.
type Advisor interface {
	Advise(ctx context.Context, r Result) ([]audit.Suggestion, error)
}

// Alternative is the first-fit-decreasing view of the same measurements.
type Alternative struct {
	Pages       []paginate.Page `json:"pages" yaml:"pages"`
	TotalPages  int             `json:"total_pages" yaml:"total_pages"`
	AvgFitScore float64         `json:"avg_fit_score" yaml:"avg_fit_score"`
}

// Result is a paginated and audited measurement list.
type Result struct {
	Pages       []paginate.Page    `json:"pages" yaml:"pages"`
	Defects     []audit.Defect     `json:"defects" yaml:"defects"`
	Suggestions []audit.Suggestion `json:"suggestions" yaml:"suggestions"`
	TotalPages  int                `json:"total_pages" yaml:"total_pages"`
	AvgFitScore float64            `json:"avg_fit_score" yaml:"avg_fit_score"`
	HasOverflow bool               `json:"has_overflow" yaml:"has_overflow"`
	Optimized   bool               `json:"optimized" yaml:"optimized"`
	Alternative *Alternative       `json:"alternative,omitempty" yaml:"alternative,omitempty"`
}

// PaginationResult paginates ms in document order and audits the pages.
// With opts.Optimize set the first-fit-decreasing view is attached as
// Alternative; Pages always keep document order.
func PaginationResult(ms []types.Measurement, opts paginate.Options) Result {
	pages := paginate.Paginate(ms, opts)
	report := audit.Audit(pages, opts)
	st := paginate.Summarize(pages)

	r := Result{
		Pages:       pages,
		Defects:     report.Defects,
		Suggestions: report.Suggestions,
		TotalPages:  st.TotalPages,
		AvgFitScore: st.AvgFitScore,
		HasOverflow: st.HasOverflow,
	}
	if opts.Optimize {
		alt := paginate.PaginateOptimized(ms, opts)
		ast := paginate.Summarize(alt)
		r.Optimized = true
		r.Alternative = &Alternative{Pages: alt, TotalPages: ast.TotalPages, AvgFitScore: ast.AvgFitScore}
	}
	return r
}

// Config configures a Service.
type Config struct {
	Surface     surface.Factory
	Pagination  paginate.Options
	Measurement measure.Options
	CacheSize   int
	Advisor     Advisor
	Logger      *slog.Logger
}

// Service owns the measurement surface, the cache and the orchestrator for
// one editing session.
type Service struct {
	offscreen *surface.Offscreen
	measurer  *measure.Measurer
	orch      *measure.Orchestrator
	advisor   Advisor
	logger    *slog.Logger

	mu   sync.RWMutex
	opts paginate.Options
}

// New creates a service. The render surface is not built until the first
// measurement.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	off := surface.NewOffscreen(cfg.Surface, logger)
	m := measure.NewMeasurer(off, cache.NewLRU(cfg.CacheSize), logger)
	mopts := cfg.Measurement
	mopts.Logger = logger
	return &Service{
		offscreen: off,
		measurer:  m,
		orch:      measure.NewOrchestrator(m, mopts),
		advisor:   cfg.Advisor,
		logger:    logger,
		opts:      cfg.Pagination,
	}
}

// OnDocumentChanged schedules a measurement pass. It returns immediately.
func (s *Service) OnDocumentChanged(doc []types.Section, loc measure.Locator) {
	s.orch.OnDocumentChanged(doc, loc)
}

// Measurements returns the last published measurement list.
func (s *Service) Measurements() []types.Measurement {
	return s.orch.Measurements()
}

// Subscribe registers fn for every published or patched measurement list.
func (s *Service) Subscribe(fn func([]types.Measurement)) {
	s.orch.Subscribe(fn)
}

// Options returns the current pagination options.
func (s *Service) Options() paginate.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// SetOptions replaces the pagination options used by Current.
func (s *Service) SetOptions(opts paginate.Options) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// PaginationResult paginates ms with opts.
func (s *Service) PaginationResult(ms []types.Measurement, opts paginate.Options) Result {
	return PaginationResult(ms, opts)
}

// Current paginates the published measurements with the service options.
func (s *Service) Current() Result {
	return PaginationResult(s.Measurements(), s.Options())
}

// Advise extends r with the advisor's suggestions. Advisor failures are
// logged and leave r unchanged.
func (s *Service) Advise(ctx context.Context, r Result) Result {
	if s.advisor == nil || len(r.Pages) == 0 {
		return r
	}
	extra, err := s.advisor.Advise(ctx, r)
	if err != nil {
		s.logger.Warn("advisor failed", "error", err)
		return r
	}
	r.Suggestions = append(r.Suggestions, extra...)
	return r
}

// MeasureNow measures secs synchronously, bypassing the orchestrator.
func (s *Service) MeasureNow(ctx context.Context, secs []types.Section) []types.Measurement {
	return s.measurer.MeasureAll(ctx, secs)
}

// Refresh purges cached heights and re-measures the current document.
func (s *Service) Refresh() {
	s.orch.Refresh()
}

// SetSurface replaces the render backend, for example after a typeset
// setting changed, and re-measures the current document.
func (s *Service) SetSurface(factory surface.Factory) error {
	if err := s.offscreen.Rebuild(factory); err != nil {
		return err
	}
	s.orch.Refresh()
	return nil
}

// Status reports orchestrator and cache counters.
type Status struct {
	Orchestrator  measure.Stats `json:"orchestrator" yaml:"orchestrator"`
	Cache         cache.Stats   `json:"cache" yaml:"cache"`
	SurfaceMounts int64         `json:"surface_mounts" yaml:"surface_mounts"`
}

// Status returns a snapshot of service counters.
func (s *Service) Status() Status {
	return Status{
		Orchestrator:  s.orch.Stats(),
		Cache:         s.measurer.Cache().Stats(),
		SurfaceMounts: s.offscreen.Mounts(),
	}
}

// Close stops the orchestrator and tears down the render surface.
func (s *Service) Close() error {
	s.orch.Close()
	return s.offscreen.Close()
}
