package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// Extractor reads the raw source table.
type Extractor interface {
	Load() (dataframe.DataFrame, error)
}

// Sink persists the cleaned observation table.
type Sink interface {
	Name() string
	Write(ctx context.Context, obs []domain.Observation) error
}

// RunScoped is implemented by sinks that tag written rows with the run ID.
type RunScoped interface {
	SetRunID(runID string)
}

// Renderer draws charts from the observation table and its report.
type Renderer interface {
	Render(ctx context.Context, obs []domain.Observation, rep report.Report) ([]string, error)
}

// Result is everything one run produced.
type Result struct {
	RunID        string
	Loaded       int
	Dropped      DropTally
	Observations []domain.Observation
	Report       report.Report
	Charts       []string
}

// Pipeline runs load → clean → derive → sinks → report → charts once per Run.
type Pipeline struct {
	extractor Extractor
	sinks     []Sink
	renderer  Renderer
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	last      atomic.Pointer[Result]
}

// New creates a Pipeline. renderer may be nil to skip charts.
func New(e Extractor, sinks []Sink, r Renderer, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		sinks:     sinks,
		renderer:  r,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastReport returns the report of the most recent successful run.
func (p *Pipeline) LastReport() (report.Report, bool) {
	res := p.last.Load()
	if res == nil {
		return report.Report{}, false
	}
	return res.Report, true
}

// Run executes every stage in order. Bad rows are dropped silently; an
// unreadable input, missing columns or a failing sink abort the run.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started")

	defer func() {
		p.metrics.LastRunTimestamp.Set(float64(domain.Now().Unix()))
		if err != nil {
			p.metrics.LastRunSuccess.Set(0)
			return
		}
		p.metrics.LastRunSuccess.Set(1)
	}()

	start := time.Now()
	df, err := p.extractor.Load()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	p.observe("load", start)
	p.metrics.RowsLoaded.Add(float64(df.Nrow()))
	logger.Info("source loaded", "rows", df.Nrow(), "columns", df.Ncol())

	start = time.Now()
	readings, dropped, err := Clean(df)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	p.observe("clean", start)
	p.metrics.RowsCleaned.Add(float64(len(readings)))
	attrs := []any{"kept", len(readings), "dropped", dropped.Total()}
	for _, reason := range domain.DropReasons {
		p.metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(dropped[reason]))
		if n := dropped[reason]; n > 0 {
			attrs = append(attrs, string(reason), n)
		}
	}
	logger.Info("rows cleaned", attrs...)

	start = time.Now()
	obs := domain.DeriveAll(readings)
	p.observe("derive", start)

	for _, s := range p.sinks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if rs, ok := s.(RunScoped); ok {
			rs.SetRunID(runID)
		}
		start = time.Now()
		if err := s.Write(ctx, obs); err != nil {
			return nil, fmt.Errorf("sink %s: %w", s.Name(), err)
		}
		p.observe("sink", start)
		p.metrics.RowsWritten.WithLabelValues(s.Name()).Add(float64(len(obs)))
		logger.Info("observations written", "sink", s.Name(), "rows", len(obs))
	}

	start = time.Now()
	rep := report.Build(runID, obs)
	p.observe("report", start)

	var charts []string
	if p.renderer != nil {
		start = time.Now()
		charts, err = p.renderer.Render(ctx, obs, rep)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		p.observe("render", start)
		logger.Info("charts rendered", "files", charts)
	}

	res = &Result{
		RunID:        runID,
		Loaded:       df.Nrow(),
		Dropped:      dropped,
		Observations: obs,
		Report:       rep,
		Charts:       charts,
	}
	p.last.Store(res)
	p.ready.Store(true)
	logger.Info("pipeline finished", "rows", len(obs))
	return res, nil
}

// MarkFailed records that work following a successful Run failed. Readiness
// is cleared and the last-run gauge reports failure until the next Run.
func (p *Pipeline) MarkFailed(err error) {
	p.ready.Store(false)
	p.metrics.LastRunSuccess.Set(0)
	p.logger.Warn("run marked failed", "error", err)
}

func (p *Pipeline) observe(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
