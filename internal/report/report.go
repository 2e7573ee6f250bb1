// Package report computes the descriptive statistics of a cleaned
// observation table. Every function is a read-only aggregation over its
// input and never reorders or modifies it.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// TopN is how many districts the ranked listings show.
const TopN = 5

// Report gathers every statistic for one run.
type Report struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Rows         int                `json:"rows"`
	MeanPM10     float64            `json:"mean_pm10"`
	Peak         *Peak              `json:"peak,omitempty"`
	Districts    []DistrictMean     `json:"districts"`
	Seasons      []SeasonMean       `json:"seasons"`
	Grades       []GradeShare       `json:"grades"`
	GoodRatios   []GoodRatio        `json:"good_ratios"`
	SeasonGrades []SeasonGradeShare `json:"season_grades"`
}

// Peak is the observation with the highest PM10.
type Peak struct {
	Date     time.Time `json:"date"`
	District string    `json:"district"`
	PM10     float64   `json:"pm10"`
}

// DistrictMean is the average PM10 of one district.
type DistrictMean struct {
	District string  `json:"district"`
	MeanPM10 float64 `json:"avg_pm10"`
}

// SeasonMean is the average PM10 and PM2.5 of one season.
type SeasonMean struct {
	Season   domain.Season `json:"season"`
	MeanPM10 float64       `json:"avg_pm10"`
	MeanPM25 float64       `json:"avg_pm25"`
}

// GradeShare is how many rows fall in a grade and their percentage of the table.
type GradeShare struct {
	Grade domain.Grade `json:"pm_grade"`
	Count int          `json:"n"`
	Pct   float64      `json:"pct"`
}

// GoodRatio is the share of a district's rows graded good.
type GoodRatio struct {
	District string  `json:"district"`
	Good     int     `json:"n"`
	Total    int     `json:"total"`
	Pct      float64 `json:"pct"`
}

// SeasonGradeShare is the percentage of a season's rows in one grade.
type SeasonGradeShare struct {
	Season domain.Season `json:"season"`
	Grade  domain.Grade  `json:"pm_grade"`
	Count  int           `json:"n"`
	Total  int           `json:"total"`
	Pct    float64       `json:"pct"`
}

// Build computes every statistic over obs.
func Build(runID string, obs []domain.Observation) Report {
	r := Report{
		RunID:        runID,
		GeneratedAt:  domain.Now(),
		Rows:         len(obs),
		MeanPM10:     MeanPM10(obs),
		Districts:    DistrictMeans(obs),
		Seasons:      SeasonMeans(obs),
		Grades:       GradeShares(obs),
		GoodRatios:   GoodRatios(obs),
		SeasonGrades: SeasonGradeShares(obs),
	}
	if p, ok := PeakPM10(obs); ok {
		r.Peak = &p
	}
	return r
}

// TopDistricts returns at most TopN districts with the highest mean PM10.
func (r Report) TopDistricts() []DistrictMean {
	return head(r.Districts, TopN)
}

// TopGoodRatios returns at most TopN districts with the highest good share.
func (r Report) TopGoodRatios() []GoodRatio {
	return head(r.GoodRatios, TopN)
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// MeanPM10 is the arithmetic mean of PM10 over all rows, 0 for no rows.
func MeanPM10(obs []domain.Observation) float64 {
	if len(obs) == 0 {
		return 0
	}
	var sum float64
	for _, o := range obs {
		sum += o.PM10
	}
	return sum / float64(len(obs))
}

// PeakPM10 returns the row with the highest PM10. Ties go to the earliest
// date, then to the lexicographically first district, so the result does
// not depend on input order.
func PeakPM10(obs []domain.Observation) (Peak, bool) {
	if len(obs) == 0 {
		return Peak{}, false
	}
	best := obs[0]
	for _, o := range obs[1:] {
		switch {
		case o.PM10 > best.PM10:
			best = o
		case o.PM10 < best.PM10:
		case o.Date.Before(best.Date):
			best = o
		case o.Date.Equal(best.Date) && o.District < best.District:
			best = o
		}
	}
	return Peak{Date: best.Date, District: best.District, PM10: best.PM10}, true
}

// DistrictMeans averages PM10 per district, highest first. Equal means are
// ordered by district name.
func DistrictMeans(obs []domain.Observation) []DistrictMean {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, o := range obs {
		sums[o.District] += o.PM10
		counts[o.District]++
	}

	out := make([]DistrictMean, 0, len(sums))
	for d, sum := range sums {
		out = append(out, DistrictMean{District: d, MeanPM10: sum / float64(counts[d])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanPM10 != out[j].MeanPM10 {
			return out[i].MeanPM10 > out[j].MeanPM10
		}
		return out[i].District < out[j].District
	})
	return out
}

// SeasonMeans averages PM10 and PM2.5 per season present in obs, lowest
// PM10 first. Equal means keep calendar season order.
func SeasonMeans(obs []domain.Observation) []SeasonMean {
	type acc struct {
		pm10, pm25 float64
		n          int
	}
	groups := map[domain.Season]*acc{}
	for _, o := range obs {
		a, ok := groups[o.Season]
		if !ok {
			a = &acc{}
			groups[o.Season] = a
		}
		a.pm10 += o.PM10
		a.pm25 += o.PM25
		a.n++
	}

	out := make([]SeasonMean, 0, len(groups))
	for s, a := range groups {
		out = append(out, SeasonMean{Season: s, MeanPM10: a.pm10 / float64(a.n), MeanPM25: a.pm25 / float64(a.n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanPM10 != out[j].MeanPM10 {
			return out[i].MeanPM10 < out[j].MeanPM10
		}
		return out[i].Season.Index() < out[j].Season.Index()
	})
	return out
}

// GradeShares counts rows per grade present in obs, most frequent first,
// with each grade's percentage of all rows rounded to two decimals.
func GradeShares(obs []domain.Observation) []GradeShare {
	counts := map[domain.Grade]int{}
	for _, o := range obs {
		counts[o.Grade]++
	}

	out := make([]GradeShare, 0, len(counts))
	for g, n := range counts {
		out = append(out, GradeShare{Grade: g, Count: n, Pct: Percent(n, len(obs))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Grade.Index() < out[j].Grade.Index()
	})
	return out
}

// GoodRatios computes, for every district, the percentage of its rows
// graded good. Districts without a good row are listed at 0%. Highest share
// first, equal shares by district name.
func GoodRatios(obs []domain.Observation) []GoodRatio {
	good := map[string]int{}
	total := map[string]int{}
	for _, o := range obs {
		total[o.District]++
		if o.Grade == domain.GradeGood {
			good[o.District]++
		}
	}

	out := make([]GoodRatio, 0, len(total))
	for d, n := range total {
		out = append(out, GoodRatio{District: d, Good: good[d], Total: n, Pct: Percent(good[d], n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pct != out[j].Pct {
			return out[i].Pct > out[j].Pct
		}
		return out[i].District < out[j].District
	})
	return out
}

// SeasonGradeShares breaks each season present in obs down by grade. Every
// grade is listed for every such season, zero-filled, in calendar season
// then grade order.
func SeasonGradeShares(obs []domain.Observation) []SeasonGradeShare {
	counts := map[domain.Season]map[domain.Grade]int{}
	totals := map[domain.Season]int{}
	for _, o := range obs {
		if counts[o.Season] == nil {
			counts[o.Season] = map[domain.Grade]int{}
		}
		counts[o.Season][o.Grade]++
		totals[o.Season]++
	}

	var out []SeasonGradeShare
	for _, s := range domain.Seasons {
		total, ok := totals[s]
		if !ok {
			continue
		}
		for _, g := range domain.Grades {
			n := counts[s][g]
			out = append(out, SeasonGradeShare{Season: s, Grade: g, Count: n, Total: total, Pct: Percent(n, total)})
		}
	}
	return out
}

// Percent returns part/whole×100 rounded to two decimals, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round2(float64(part) / float64(whole) * 100)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
