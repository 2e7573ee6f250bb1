package pipeline

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// DropTally counts discarded rows by reason.
type DropTally map[domain.DropReason]int

// Total is the number of discarded rows.
func (t DropTally) Total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}

// Project selects the four required source columns and renames them to
// their canonical names. A missing column is the only error.
func Project(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := domain.RequireColumns(df.Names(), domain.SourceColumns); err != nil {
		return dataframe.DataFrame{}, err
	}

	out := df.Select(domain.SourceColumns)
	for i, old := range domain.SourceColumns {
		out = out.Rename(domain.CanonicalColumns[i], old)
	}
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("project columns: %w", out.Err)
	}
	return out, nil
}

// Clean projects df and converts each row to a Reading, keeping input order.
// Rows that fail any check are dropped and counted, never reported as errors.
func Clean(df dataframe.DataFrame) ([]domain.Reading, DropTally, error) {
	projected, err := Project(df)
	if err != nil {
		return nil, nil, err
	}

	n := projected.Nrow()
	tally := DropTally{}
	if n == 0 {
		return nil, tally, nil
	}

	dates := projected.Col(domain.FieldDate).Records()
	districts := projected.Col(domain.FieldDistrict).Records()
	pm10s := projected.Col(domain.FieldPM10).Records()
	pm25s := projected.Col(domain.FieldPM25).Records()

	readings := make([]domain.Reading, 0, n)
	for i := 0; i < n; i++ {
		r, reason := domain.CleanReading(domain.RawRecord{
			Date:     dates[i],
			District: districts[i],
			PM10:     pm10s[i],
			PM25:     pm25s[i],
		})
		if reason != domain.DropNone {
			tally[reason]++
			continue
		}
		readings = append(readings, r)
	}
	return readings, tally, nil
}
