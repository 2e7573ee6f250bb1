package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/tabular"
	"github.com/couchcryptid/air-quality-etl/internal/chart"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// app holds the wired pipeline and the resources it must release.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
	store    *sqlite.Store
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	sinks := []pipeline.Sink{tabular.NewCSVWriter(cfg.OutputPath)}

	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		a.store = store
		a.closers = append(a.closers, store)
		sinks = append(sinks, store)
		logger.Info("sqlite archive enabled", "path", cfg.SQLitePath)
	}

	if cfg.KafkaEnabled() {
		writer := kafka.NewWriter(cfg, logger)
		a.closers = append(a.closers, writer)
		sinks = append(sinks, writer)
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	loader := tabular.NewLoader(cfg.InputPath, cfg.InputEncoding)
	renderer := chart.NewRenderer(cfg.ChartDir, cfg.City, cfg.Year)
	a.pipeline = pipeline.New(loader, sinks, renderer, logger, observability.NewMetrics())
	return a, nil
}

// runOnce executes the pipeline and publishes the report to stdout and the
// optional workbook, archive and metrics file.
func (a *app) runOnce(ctx context.Context, stdout io.Writer) (*pipeline.Result, error) {
	res, runErr := a.pipeline.Run(ctx)
	if runErr == nil {
		if runErr = a.publish(ctx, res, stdout); runErr != nil {
			a.pipeline.MarkFailed(runErr)
		}
	}

	if a.cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.logger.Error("write metrics file", "path", a.cfg.MetricsFile, "error", err)
		}
	}
	return res, runErr
}

func (a *app) publish(ctx context.Context, res *pipeline.Result, stdout io.Writer) error {
	if err := report.Print(stdout, res.Report); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	if a.cfg.ReportXLSXPath != "" {
		if err := report.WriteWorkbook(a.cfg.ReportXLSXPath, res.Report); err != nil {
			return err
		}
		a.logger.Info("report workbook written", "path", a.cfg.ReportXLSXPath)
	}

	if a.store != nil {
		if err := a.store.RecordRun(ctx, res.Report, res.Loaded, res.Dropped.Total()); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type runCmd struct {
	Source sourceFlags `embed:""`
}

func (r *runCmd) Run(cfg *config.Config, logger *slog.Logger) error {
	r.Source.apply(cfg)
	ctx := context.Background()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close sinks", "error", err)
		}
	}()

	res, err := a.runOnce(ctx, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("run complete", "run_id", res.RunID, "output", cfg.OutputPath, "charts", res.Charts)
	return nil
}
