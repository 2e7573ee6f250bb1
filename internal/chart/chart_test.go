package chart

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func day(m time.Month, d int) time.Time {
	return time.Date(2019, m, d, 0, 0, 0, 0, time.UTC)
}

func sample() []domain.Observation {
	return domain.DeriveAll([]domain.Reading{
		{Date: day(time.March, 2), District: "종로구", PM10: 90, PM25: 50},
		{Date: day(time.January, 5), District: "종로구", PM10: 40, PM25: 20},
		{Date: day(time.January, 5), District: "중구", PM10: 60, PM25: 30},
		{Date: day(time.July, 1), District: "중구", PM10: 15, PM25: 8},
	})
}

func TestDailyMeans(t *testing.T) {
	got := DailyMeans(sample())

	require.Len(t, got, 3)
	assert.Equal(t, day(time.January, 5), got[0].Date)
	assert.InDelta(t, 50, got[0].MeanPM10, 1e-9)
	assert.Equal(t, day(time.March, 2), got[1].Date)
	assert.Equal(t, day(time.July, 1), got[2].Date)
}

func TestSeasonSeries(t *testing.T) {
	series := SeasonSeries(report.SeasonGradeShares(sample()))

	require.Len(t, series, 4)
	for _, g := range domain.Grades {
		assert.Len(t, series[g], 4)
	}
	// Winter (index 3): one normal (40), one normal (60).
	assert.Equal(t, 100.0, series[domain.GradeNormal][3])
	// Summer (index 1): one good.
	assert.Equal(t, 100.0, series[domain.GradeGood][1])
	// Fall has no rows.
	assert.Equal(t, 0.0, series[domain.GradeGood][2])
}

func TestRenderer_Render(t *testing.T) {
	dir := t.TempDir()
	obs := sample()
	r := NewRenderer(dir, "Seoul", 2019)

	paths, err := r.Render(context.Background(), obs, report.Build("run-chart", obs))
	require.NoError(t, err)
	require.Len(t, paths, 2)

	for _, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), p)
	}
}

func TestRenderer_RenderEmpty(t *testing.T) {
	r := NewRenderer(t.TempDir(), "Seoul", 2019)

	paths, err := r.Render(context.Background(), nil, report.Build("run-empty", nil))
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}
