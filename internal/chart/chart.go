// Package chart renders the PM10 trend and seasonal grade charts as PNG files.
package chart

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

// Output file names inside the chart directory.
const (
	TrendFile  = "pm10_daily_trend.png"
	SeasonFile = "pm10_grade_by_season.png"
)

// gradeColors follows the usual air-quality palette, cleanest to dirtiest.
var gradeColors = map[domain.Grade]color.RGBA{
	domain.GradeGood:   {R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	domain.GradeNormal: {R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	domain.GradeBad:    {R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	domain.GradeWorse:  {R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// Renderer draws both charts into a directory.
// It implements pipeline.Renderer.
type Renderer struct {
	dir  string
	city string
	year int
}

// NewRenderer creates a Renderer; city and year only appear in titles.
func NewRenderer(dir, city string, year int) *Renderer {
	return &Renderer{dir: dir, city: city, year: year}
}

// Render writes the trend and seasonal charts and returns their paths.
func (r *Renderer) Render(_ context.Context, obs []domain.Observation, rep report.Report) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	trend := filepath.Join(r.dir, TrendFile)
	if err := r.renderTrend(trend, obs); err != nil {
		return nil, err
	}

	season := filepath.Join(r.dir, SeasonFile)
	if err := r.renderSeasonGrades(season, rep.SeasonGrades); err != nil {
		return nil, err
	}

	return []string{trend, season}, nil
}

// DailyMean is the average PM10 across districts on one date.
type DailyMean struct {
	Date     time.Time
	MeanPM10 float64
}

// DailyMeans averages PM10 per date, in chronological order.
func DailyMeans(obs []domain.Observation) []DailyMean {
	sums := map[time.Time]float64{}
	counts := map[time.Time]int{}
	for _, o := range obs {
		sums[o.Date] += o.PM10
		counts[o.Date]++
	}

	out := make([]DailyMean, 0, len(sums))
	for d, s := range sums {
		out = append(out, DailyMean{Date: d, MeanPM10: s / float64(counts[d])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (r *Renderer) renderTrend(path string, obs []domain.Observation) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Daily Trend of PM10 in %s, %d", r.city, r.year)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "PM10 (ug/m^3)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Add(plotter.NewGrid())

	daily := DailyMeans(obs)
	if len(daily) > 0 {
		pts := make(plotter.XYs, len(daily))
		for i, d := range daily {
			pts[i].X = float64(d.Date.Unix())
			pts[i].Y = d.MeanPM10
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trend line: %w", err)
		}
		line.Width = vg.Points(1)
		line.Color = gradeColors[domain.GradeGood]
		p.Add(line)
	}

	if err := p.Save(12*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// SeasonSeries lays the season/grade shares out as one value per season
// (spring, summer, fall, winter) for each grade. Missing combinations are 0.
func SeasonSeries(shares []report.SeasonGradeShare) map[domain.Grade]plotter.Values {
	out := make(map[domain.Grade]plotter.Values, len(domain.Grades))
	for _, g := range domain.Grades {
		out[g] = make(plotter.Values, len(domain.Seasons))
	}
	for _, s := range shares {
		si, gi := s.Season.Index(), s.Grade.Index()
		if si >= len(domain.Seasons) || gi >= len(domain.Grades) {
			continue
		}
		out[s.Grade][si] = s.Pct
	}
	return out
}

func (r *Renderer) renderSeasonGrades(path string, shares []report.SeasonGradeShare) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Seasonal Distribution of PM10 Grades in %s, %d", r.city, r.year)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Season"
	p.Y.Label.Text = "Rate (%)"
	p.Y.Min = 0
	p.Legend.Top = true

	series := SeasonSeries(shares)
	width := vg.Points(14)
	offset := -width * vg.Length(len(domain.Grades)-1) / 2

	for i, g := range domain.Grades {
		bars, err := plotter.NewBarChart(series[g], width)
		if err != nil {
			return fmt.Errorf("bars for %s: %w", g, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = gradeColors[g]
		bars.Offset = offset + width*vg.Length(i)
		p.Add(bars)
		p.Legend.Add(string(g), bars)
	}

	names := make([]string, len(domain.Seasons))
	for i, s := range domain.Seasons {
		names[i] = string(s)
	}
	p.NominalX(names...)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
