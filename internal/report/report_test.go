package report

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

func obs(date, district string, pm10, pm25 float64) domain.Observation {
	d, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return domain.Derive(domain.Reading{Date: d, District: district, PM10: pm10, PM25: pm25})
}

// fixture covers all four seasons and grades across three districts.
func fixture() []domain.Observation {
	return []domain.Observation{
		obs("2019-01-10", "종로구", 120, 80), // winter bad
		obs("2019-01-10", "중구", 20, 10),    // winter good
		obs("2019-04-02", "종로구", 200, 90), // spring worse
		obs("2019-04-02", "강남구", 60, 30),  // spring normal
		obs("2019-07-15", "중구", 10, 5),     // summer good
		obs("2019-07-15", "강남구", 30, 12),  // summer good
		obs("2019-10-20", "종로구", 50, 20),  // fall normal
		obs("2019-10-20", "중구", 40, 18),    // fall normal
	}
}

func TestMeanPM10(t *testing.T) {
	assert.InDelta(t, 66.25, MeanPM10(fixture()), 1e-9)
	assert.Equal(t, 0.0, MeanPM10(nil))
}

func TestPeakPM10(t *testing.T) {
	p, ok := PeakPM10(fixture())
	require.True(t, ok)
	assert.Equal(t, "종로구", p.District)
	assert.Equal(t, 200.0, p.PM10)
	assert.Equal(t, "2019-04-02", p.Date.Format(domain.DateLayout))

	_, ok = PeakPM10(nil)
	assert.False(t, ok)
}

func TestPeakPM10_TieBreakIsOrderIndependent(t *testing.T) {
	rows := []domain.Observation{
		obs("2019-05-02", "가구", 150, 1),
		obs("2019-05-01", "하구", 150, 1),
		obs("2019-05-01", "나구", 150, 1),
		obs("2019-03-01", "다구", 100, 1),
	}
	want := Peak{Date: rows[2].Date, District: "나구", PM10: 150}

	for i := 0; i < len(rows); i++ {
		rotated := append(append([]domain.Observation{}, rows[i:]...), rows[:i]...)
		got, ok := PeakPM10(rotated)
		require.True(t, ok)
		assert.Equal(t, want, got, "rotation %d", i)
	}
}

func TestDistrictMeans(t *testing.T) {
	got := DistrictMeans(fixture())

	require.Len(t, got, 3)
	assert.Equal(t, "종로구", got[0].District)
	assert.InDelta(t, 123.333, got[0].MeanPM10, 1e-3)
	assert.Equal(t, "강남구", got[1].District)
	assert.InDelta(t, 45, got[1].MeanPM10, 1e-9)
	assert.Equal(t, "중구", got[2].District)
	assert.InDelta(t, 23.333, got[2].MeanPM10, 1e-3)
}

func TestDistrictMeans_TiesByName(t *testing.T) {
	got := DistrictMeans([]domain.Observation{
		obs("2019-01-01", "b", 10, 1),
		obs("2019-01-01", "a", 10, 1),
	})
	assert.Equal(t, "a", got[0].District)
	assert.Equal(t, "b", got[1].District)
}

func TestSeasonMeans(t *testing.T) {
	got := SeasonMeans(fixture())

	require.Len(t, got, 4)
	order := make([]domain.Season, len(got))
	for i, s := range got {
		order[i] = s.Season
	}
	assert.Equal(t, []domain.Season{domain.Summer, domain.Fall, domain.Winter, domain.Spring}, order)
	assert.InDelta(t, 20, got[0].MeanPM10, 1e-9)
	assert.InDelta(t, 8.5, got[0].MeanPM25, 1e-9)
	assert.InDelta(t, 130, got[3].MeanPM10, 1e-9)
	assert.InDelta(t, 60, got[3].MeanPM25, 1e-9)
}

func TestGradeShares(t *testing.T) {
	got := GradeShares(fixture())

	require.Len(t, got, 4)
	assert.Equal(t, GradeShare{Grade: domain.GradeGood, Count: 3, Pct: 37.5}, got[0])
	assert.Equal(t, GradeShare{Grade: domain.GradeNormal, Count: 3, Pct: 37.5}, got[1])
	assert.Equal(t, GradeShare{Grade: domain.GradeBad, Count: 1, Pct: 12.5}, got[2])
	assert.Equal(t, GradeShare{Grade: domain.GradeWorse, Count: 1, Pct: 12.5}, got[3])
}

func TestGradeShares_SumTo100(t *testing.T) {
	rows := make([]domain.Observation, 0, 301)
	for v := 0; v <= 300; v++ {
		rows = append(rows, obs("2019-03-01", "종로구", float64(v), 1))
	}

	var sum float64
	for _, g := range GradeShares(rows) {
		sum += g.Pct
	}
	assert.InDelta(t, 100, sum, 0.02)
}

func TestGoodRatios(t *testing.T) {
	got := GoodRatios(fixture())

	require.Len(t, got, 3)
	assert.Equal(t, GoodRatio{District: "중구", Good: 2, Total: 3, Pct: 66.67}, got[0])
	assert.Equal(t, GoodRatio{District: "강남구", Good: 1, Total: 2, Pct: 50}, got[1])
	assert.Equal(t, GoodRatio{District: "종로구", Good: 0, Total: 3, Pct: 0}, got[2], "districts without good rows are kept at 0%")
}

func TestSeasonGradeShares(t *testing.T) {
	got := SeasonGradeShares(fixture())

	require.Len(t, got, 16)
	sums := map[domain.Season]float64{}
	for i, s := range got {
		assert.Equal(t, domain.Seasons[i/4], s.Season)
		assert.Equal(t, domain.Grades[i%4], s.Grade)
		sums[s.Season] += s.Pct
	}
	for season, sum := range sums {
		assert.InDelta(t, 100, sum, 0.02, "season %s", season)
	}

	summerGood := got[1*4+0]
	assert.Equal(t, SeasonGradeShare{Season: domain.Summer, Grade: domain.GradeGood, Count: 2, Total: 2, Pct: 100}, summerGood)
}

func TestSeasonGradeShares_SkipsAbsentSeasons(t *testing.T) {
	got := SeasonGradeShares([]domain.Observation{obs("2019-07-01", "중구", 90, 40)})

	require.Len(t, got, 4)
	for _, s := range got {
		assert.Equal(t, domain.Summer, s.Season)
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33.33, Percent(1, 3))
	assert.Equal(t, 66.67, Percent(2, 3))
	assert.Equal(t, 0.0, Percent(1, 0))
	assert.False(t, math.IsNaN(Percent(0, 0)))
}

func TestBuild(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))
	domain.SetClock(clk)
	defer domain.SetClock(nil)

	r := Build("run-1", fixture())

	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, clk.Now(), r.GeneratedAt)
	assert.Equal(t, 8, r.Rows)
	require.NotNil(t, r.Peak)
	assert.Len(t, r.TopDistricts(), 3)
	assert.Len(t, r.SeasonGrades, 16)
}

func TestBuild_Empty(t *testing.T) {
	r := Build("run-empty", nil)

	assert.Equal(t, 0, r.Rows)
	assert.Nil(t, r.Peak)
	assert.Empty(t, r.Districts)
	assert.Empty(t, r.SeasonGrades)
}

func TestTopListsAreCapped(t *testing.T) {
	var rows []domain.Observation
	for _, d := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		rows = append(rows, obs("2019-01-01", d, 10, 1))
	}
	r := Build("run-cap", rows)

	assert.Len(t, r.Districts, 7)
	assert.Len(t, r.TopDistricts(), TopN)
	assert.Len(t, r.TopGoodRatios(), TopN)
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, Build("run-print", fixture())))

	out := buf.String()
	assert.Contains(t, out, "Annual mean PM10: 66.25 ug/m^3")
	assert.Contains(t, out, "PM10 maximum 200 ug/m^3 on 2019-04-02 in 종로구")

	// Sections appear in pipeline order.
	sections := []string{"Annual mean", "PM10 maximum", "Top 5 districts by mean PM10", "by season", "grade counts", "by good share"}
	last := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		require.NotEqual(t, -1, idx, s)
		assert.Greater(t, idx, last, s)
		last = idx
	}
}

func TestPrint_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, Build("run-empty", nil)))
	assert.Contains(t, buf.String(), "no observations")
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.xlsx")
	require.NoError(t, WriteWorkbook(path, Build("run-xlsx", fixture())))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDistricts, SheetSeasons, SheetGrades, SheetGoodRatios, SheetSeasonGrades}, f.GetSheetList())

	rows, err := f.GetRows(SheetDistricts)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"district", "avg_pm10"}, rows[0])
	assert.Equal(t, "종로구", rows[1][0])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"run_id", "run-xlsx"}, summary[0])

	seasonGrades, err := f.GetRows(SheetSeasonGrades)
	require.NoError(t, err)
	assert.Len(t, seasonGrades, 17)
}
