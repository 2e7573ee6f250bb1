// Package sqlite archives each run's observation table and summary in a
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// Store persists observations and run summaries.
// It implements pipeline.Sink.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
	runID  string
}

// Open connects to the database at path and applies migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "sqlite" }

type observationRow struct {
	Date     string  `db:"date"`
	District string  `db:"district"`
	PM10     float64 `db:"pm10"`
	PM25     float64 `db:"pm25"`
	Month    int     `db:"month"`
	Day      int     `db:"day"`
	Season   string  `db:"season"`
	Grade    string  `db:"pm_grade"`
	RunID    string  `db:"run_id"`
}

func toRow(o domain.Observation, runID string) observationRow {
	return observationRow{
		Date:     o.Date.Format(domain.DateLayout),
		District: o.District,
		PM10:     o.PM10,
		PM25:     o.PM25,
		Month:    o.Month,
		Day:      o.Day,
		Season:   string(o.Season),
		Grade:    string(o.Grade),
		RunID:    runID,
	}
}

func (r observationRow) toObservation() (domain.Observation, error) {
	d, err := time.Parse(domain.DateLayout, r.Date)
	if err != nil {
		return domain.Observation{}, fmt.Errorf("parse stored date %q: %w", r.Date, err)
	}
	return domain.Observation{
		Date:     d,
		District: r.District,
		PM10:     r.PM10,
		PM25:     r.PM25,
		Month:    r.Month,
		Day:      r.Day,
		Season:   domain.Season(r.Season),
		Grade:    domain.Grade(r.Grade),
	}, nil
}

// Write replaces the stored table with obs.
func (s *Store) Write(ctx context.Context, obs []domain.Observation) error {
	return s.ReplaceObservations(ctx, s.runID, obs)
}

// SetRunID tags rows written through Write with a run identifier.
func (s *Store) SetRunID(runID string) { s.runID = runID }

// ReplaceObservations deletes every stored observation and inserts obs in a
// single transaction, so the archive always holds exactly one run.
func (s *Store) ReplaceObservations(ctx context.Context, runID string, obs []domain.Observation) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM observations"); err != nil {
		return fmt.Errorf("clear observations: %w", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO observations (date, district, pm10, pm25, month, day, season, pm_grade, run_id)
		VALUES (:date, :district, :pm10, :pm25, :month, :day, :season, :pm_grade, :run_id)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, toRow(o, runID)); err != nil {
			return fmt.Errorf("insert %s: %w", o.Key(), err)
		}
	}

	return tx.Commit()
}

// Observations returns the stored table in insertion order.
func (s *Store) Observations(ctx context.Context) ([]domain.Observation, error) {
	var rows []observationRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT date, district, pm10, pm25, month, day, season, pm_grade, run_id
		FROM observations ORDER BY rowid
	`); err != nil {
		return nil, fmt.Errorf("select observations: %w", err)
	}

	out := make([]domain.Observation, len(rows))
	for i, r := range rows {
		o, err := r.toObservation()
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}

// Run is a stored run summary.
type Run struct {
	RunID        string          `db:"run_id"`
	GeneratedAt  string          `db:"generated_at"`
	RowsLoaded   int             `db:"rows_loaded"`
	RowsDropped  int             `db:"rows_dropped"`
	RowsKept     int             `db:"rows_kept"`
	MeanPM10     float64         `db:"mean_pm10"`
	PeakPM10     sql.NullFloat64 `db:"peak_pm10"`
	PeakDate     sql.NullString  `db:"peak_date"`
	PeakDistrict sql.NullString  `db:"peak_district"`
}

// RecordRun stores the summary of a finished run.
func (s *Store) RecordRun(ctx context.Context, rep report.Report, loaded, dropped int) error {
	run := Run{
		RunID:       rep.RunID,
		GeneratedAt: rep.GeneratedAt.UTC().Format(time.RFC3339),
		RowsLoaded:  loaded,
		RowsDropped: dropped,
		RowsKept:    rep.Rows,
		MeanPM10:    rep.MeanPM10,
	}
	if rep.Peak != nil {
		run.PeakPM10 = sql.NullFloat64{Float64: rep.Peak.PM10, Valid: true}
		run.PeakDate = sql.NullString{String: rep.Peak.Date.Format(domain.DateLayout), Valid: true}
		run.PeakDistrict = sql.NullString{String: rep.Peak.District, Valid: true}
	}

	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, rows_loaded, rows_dropped, rows_kept, mean_pm10, peak_pm10, peak_date, peak_district)
		VALUES (:run_id, :generated_at, :rows_loaded, :rows_dropped, :rows_kept, :mean_pm10, :peak_pm10, :peak_date, :peak_district)
	`, run); err != nil {
		return fmt.Errorf("insert run %s: %w", rep.RunID, err)
	}
	return nil
}

// Runs lists stored run summaries, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, "SELECT * FROM runs ORDER BY generated_at, rowid"); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}
