package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/casedash/internal/analysis"
	"github.com/KaramelBytes/casedash/internal/cache"
	"github.com/KaramelBytes/casedash/internal/dataset"
	"github.com/KaramelBytes/casedash/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Pipeline stages reported in diagnostics.
const (
	StageLoad     = "load"
	StageKPI      = "kpi"
	StageTimeline = "timeline"
	StagePanic    = "panic"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic records one degraded pipeline step.
type Diagnostic struct {
	Stage    string   `json:"stage"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Snapshot is everything one dashboard render needs.
type Snapshot struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Source      dataset.Source     `json:"source"`
	Rows        int                `json:"rows"`
	Columns     []string           `json:"columns"`
	Table       *dataset.Table     `json:"table"`
	KPIs        []analysis.KPI     `json:"kpis"`
	Timeline    *analysis.Timeline `json:"timeline,omitempty"`
	Charts      []analysis.Chart   `json:"charts"`
	Diagnostics []Diagnostic       `json:"diagnostics,omitempty"`
}

// Degraded reports whether any step fell back to a default.
func (s *Snapshot) Degraded() bool {
	for _, d := range s.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Loader produces the dataset for one pass. *dataset.Loader implements it.
type Loader interface {
	Load(ctx context.Context) dataset.Result
	Options() dataset.Options
}

// Service runs the load, KPI and chart pipeline. Loads go through a TTL cache
// shared by every caller of the same Service.
type Service struct {
	loader  Loader
	cache   *cache.TTL[dataset.Result]
	opt     analysis.Options
	metrics *metrics.Metrics
	log     *zap.Logger
	clock   cache.Clock
}

// Config bundles the Service dependencies. Metrics and Log may be nil.
type Config struct {
	Loader   Loader
	CacheTTL time.Duration
	Clock    cache.Clock
	Analysis analysis.Options
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// NewService wires a pipeline.
func NewService(cfg Config) (*Service, error) {
	if cfg.Loader == nil {
		return nil, errors.New("dashboard: loader is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = cache.SystemClock
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	c := cache.New[dataset.Result](cfg.CacheTTL, cfg.Clock)
	if cfg.Metrics != nil {
		c.Observe(cfg.Metrics)
	}
	return &Service{
		loader:  cfg.Loader,
		cache:   c,
		opt:     cfg.Analysis,
		metrics: cfg.Metrics,
		log:     cfg.Log.Named("dashboard"),
		clock:   cfg.Clock,
	}, nil
}

// Dataset returns the cached load result, loading it when stale. Failed loads
// come back as an empty table with Result.Err set and are cached like any other.
func (s *Service) Dataset(ctx context.Context) (dataset.Result, error) {
	return s.cache.Get(ctx, s.load)
}

func (s *Service) load(ctx context.Context) (res dataset.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("load panic recovered", zap.Any("panic", r))
			res = dataset.Result{
				Table:    dataset.Empty(),
				Source:   dataset.Source{Kind: dataset.SourceNone},
				Err:      fmt.Errorf("load panic: %v", r),
				LoadedAt: s.clock.Now(),
			}
			s.metrics.ObserveLoad(string(res.Source.Kind), true, 0, 0)
		}
	}()
	res = s.loader.Load(ctx)
	// Structured-record sources keep deadlines as text.
	res.Table.CoerceTime(dataset.ColDeadline, s.loader.Options().DateLayouts)
	s.metrics.ObserveLoad(string(res.Source.Kind), res.Degraded(), res.Table.Len(), res.Elapsed)
	return res, nil
}

// Refresh drops the cached dataset so the next call reloads it.
func (s *Service) Refresh() { s.cache.Invalidate() }

// Snapshot runs one pipeline pass. It always returns a usable snapshot; problems
// are reported in Diagnostics. Only context cancellation is returned as an error.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))

	res, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	snap := s.build(res, runID, log)
	for _, d := range snap.Diagnostics {
		s.metrics.ObserveDiagnostic(d.Stage)
	}
	log.Debug("snapshot built",
		zap.String("source", string(snap.Source.Kind)),
		zap.Int("rows", snap.Rows),
		zap.Int("kpis", len(snap.KPIs)),
		zap.Int("charts", len(snap.Charts)),
		zap.Int("diagnostics", len(snap.Diagnostics)))
	return snap, nil
}

func (s *Service) build(res dataset.Result, runID string, log *zap.Logger) (snap *Snapshot) {
	snap = &Snapshot{
		RunID:       runID,
		GeneratedAt: s.clock.Now(),
		Source:      res.Source,
		Table:       res.Table,
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic recovered", zap.Any("panic", r))
			empty := dataset.Empty()
			snap.Table = empty
			snap.KPIs = analysis.KPIs(empty, s.opt)
			snap.Timeline = nil
			snap.Charts = nil
			snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
				Stage:    StagePanic,
				Severity: SeverityError,
				Message:  fmt.Sprintf("%v", r),
			})
			snap.Rows, snap.Columns = 0, nil
		}
	}()

	if res.Err != nil {
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			Stage:    StageLoad,
			Severity: SeverityError,
			Message:  res.Err.Error(),
		})
	}
	snap.Rows = res.Table.Len()
	snap.Columns = res.Table.Names()

	kpis, skipped := analysis.EvaluateKPIs(res.Table, s.opt)
	snap.KPIs = kpis
	for _, sk := range skipped {
		log.Warn("kpi skipped", zap.String("kpi", sk.Title), zap.Error(sk.Err))
		snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
			Stage:    StageKPI,
			Severity: SeverityWarning,
			Message:  fmt.Sprintf("%s: %v", sk.Title, sk.Err),
		})
	}

	if tl, ok := analysis.BuildTimeline(res.Table); ok {
		snap.Timeline = tl
		if len(tl.Points) == 0 {
			snap.Diagnostics = append(snap.Diagnostics, Diagnostic{
				Stage:    StageTimeline,
				Severity: SeverityWarning,
				Message:  "no rows with both deadline and duration",
			})
		}
	}

	snap.Charts = analysis.Charts(res.Table, s.opt)
	return snap
}

// KPIs returns only the metric cards of a fresh or cached dataset.
func (s *Service) KPIs(ctx context.Context) ([]analysis.KPI, error) {
	res, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.KPIs(res.Table, s.opt), nil
}

// ErrUnknownColumn is returned by Top for a column the dataset does not have.
var ErrUnknownColumn = errors.New("unknown column")

// Top returns the n most frequent values of a column with the rest collapsed
// into the Others bucket. Missing cells are skipped.
func (s *Service) Top(ctx context.Context, column string, n int) ([]analysis.CategoryCount, error) {
	res, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	col, ok := res.Table.Column(column)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	others := s.opt.OthersLabel
	if others == "" {
		others = analysis.OthersLabel
	}
	return analysis.CollapseTail(analysis.ValueCounts(col.Labels("")), n, others), nil
}
