package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// Sheet names of the report workbook.
const (
	SheetSummary      = "Summary"
	SheetDistricts    = "Districts"
	SheetSeasons      = "Seasons"
	SheetGrades       = "Grades"
	SheetGoodRatios   = "GoodRatios"
	SheetSeasonGrades = "SeasonGrades"
)

// WriteWorkbook saves r as an XLSX file with one sheet per statistic.
// Ranked sheets hold every district, not only the top entries.
func WriteWorkbook(path string, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	summary := [][]any{
		{"run_id", r.RunID},
		{"generated_at", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
		{"rows", r.Rows},
		{"mean_pm10", Round2(r.MeanPM10)},
	}
	if r.Peak != nil {
		summary = append(summary,
			[]any{"peak_pm10", r.Peak.PM10},
			[]any{"peak_date", r.Peak.Date.Format(domain.DateLayout)},
			[]any{"peak_district", r.Peak.District},
		)
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return err
	}

	districts := [][]any{{"district", "avg_pm10"}}
	for _, d := range r.Districts {
		districts = append(districts, []any{d.District, Round2(d.MeanPM10)})
	}

	seasons := [][]any{{"season", "avg_pm10", "avg_pm25"}}
	for _, s := range r.Seasons {
		seasons = append(seasons, []any{string(s.Season), Round2(s.MeanPM10), Round2(s.MeanPM25)})
	}

	grades := [][]any{{"pm_grade", "n", "pct"}}
	for _, g := range r.Grades {
		grades = append(grades, []any{string(g.Grade), g.Count, g.Pct})
	}

	good := [][]any{{"district", "n", "total", "pct"}}
	for _, g := range r.GoodRatios {
		good = append(good, []any{g.District, g.Good, g.Total, g.Pct})
	}

	seasonGrades := [][]any{{"season", "pm_grade", "n", "total", "pct"}}
	for _, s := range r.SeasonGrades {
		seasonGrades = append(seasonGrades, []any{string(s.Season), string(s.Grade), s.Count, s.Total, s.Pct})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetDistricts, districts},
		{SheetSeasons, seasons},
		{SheetGrades, grades},
		{SheetGoodRatios, good},
		{SheetSeasonGrades, seasonGrades},
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
