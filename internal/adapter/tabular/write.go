package tabular

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// CSVWriter writes the cleaned observation table.
// It implements pipeline.Sink.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for the given output path.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Name identifies the sink in logs and metrics.
func (w *CSVWriter) Name() string { return "csv" }

// Write replaces the output file with one row per observation, in order,
// under the header date,district,pm10,pm25,month,day,season.
func (w *CSVWriter) Write(_ context.Context, obs []domain.Observation) error {
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := ObservationFrame(obs).WriteCSV(f); err != nil {
		return fmt.Errorf("write csv %s: %w", w.path, err)
	}
	return f.Close()
}

// ObservationFrame lays observations out under domain.OutputColumns.
func ObservationFrame(obs []domain.Observation) dataframe.DataFrame {
	cols := make([][]string, len(domain.OutputColumns))
	for i := range cols {
		cols[i] = make([]string, len(obs))
	}
	for i, o := range obs {
		cols[0][i] = o.Date.Format(domain.DateLayout)
		cols[1][i] = o.District
		cols[2][i] = FormatFloat(o.PM10)
		cols[3][i] = FormatFloat(o.PM25)
		cols[4][i] = strconv.Itoa(o.Month)
		cols[5][i] = strconv.Itoa(o.Day)
		cols[6][i] = string(o.Season)
	}

	s := make([]series.Series, len(cols))
	for i, name := range domain.OutputColumns {
		s[i] = series.New(cols[i], series.String, name)
	}
	return dataframe.New(s...)
}

// FormatFloat renders a measurement with at least one decimal place, so
// whole numbers read back as floats ("45" becomes "45.0").
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ReadObservations loads a file written by CSVWriter. Unlike the cleaning
// path it fails on the first malformed row; grades are re-derived from pm10
// because the output table does not carry them.
func ReadObservations(path string) ([]domain.Observation, []string, error) {
	df, err := NewLoader(path, "utf-8").Load()
	if err != nil {
		return nil, nil, err
	}
	if err := RequireColumns(df, domain.OutputColumns); err != nil {
		return nil, df.Names(), err
	}

	col := func(name string) []string { return df.Col(name).Records() }
	dates, districts, pm10s, pm25s := col(domain.FieldDate), col(domain.FieldDistrict), col(domain.FieldPM10), col(domain.FieldPM25)
	months, days, seasons := col(domain.FieldMonth), col(domain.FieldDay), col(domain.FieldSeason)

	out := make([]domain.Observation, df.Nrow())
	for i := range out {
		line := i + 2
		r, reason := domain.CleanReading(domain.RawRecord{Date: dates[i], District: districts[i], PM10: pm10s[i], PM25: pm25s[i]})
		if reason != domain.DropNone {
			return nil, df.Names(), fmt.Errorf("line %d: %s", line, reason)
		}
		month, err := strconv.Atoi(months[i])
		if err != nil {
			return nil, df.Names(), fmt.Errorf("line %d: month: %w", line, err)
		}
		day, err := strconv.Atoi(days[i])
		if err != nil {
			return nil, df.Names(), fmt.Errorf("line %d: day: %w", line, err)
		}
		out[i] = domain.Observation{
			Date:     r.Date,
			District: r.District,
			PM10:     r.PM10,
			PM25:     r.PM25,
			Month:    month,
			Day:      day,
			Season:   domain.Season(seasons[i]),
			Grade:    domain.GradeOf(r.PM10),
		}
	}
	return out, df.Names(), nil
}
