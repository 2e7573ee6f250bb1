package sqlite_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/report"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "air.db")
	s, err := sqlite.Open(context.Background(), path, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func observations() []domain.Observation {
	return domain.DeriveAll([]domain.Reading{
		{Date: time.Date(2019, 1, 15, 0, 0, 0, 0, time.UTC), District: "종로구", PM10: 45, PM25: 30},
		{Date: time.Date(2019, 7, 1, 0, 0, 0, 0, time.UTC), District: "중구", PM10: 12.5, PM25: 5},
	})
}

func TestStore_WriteAndRead(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	want := observations()

	s.SetRunID("run-1")
	require.NoError(t, s.Write(ctx, want))

	got, err := s.Observations(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "sqlite", s.Name())
}

func TestStore_WriteReplacesPreviousRun(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()
	obs := observations()

	require.NoError(t, s.ReplaceObservations(ctx, "run-1", obs))
	require.NoError(t, s.ReplaceObservations(ctx, "run-2", obs[:1]))

	got, err := s.Observations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "종로구", got[0].District)
}

func TestStore_WriteEmpty(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceObservations(ctx, "run-1", observations()))
	require.NoError(t, s.ReplaceObservations(ctx, "run-2", nil))

	got, err := s.Observations(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_RecordRun(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	rep := report.Build("run-1", observations())
	require.NoError(t, s.RecordRun(ctx, rep, 4, 2))
	require.NoError(t, s.RecordRun(ctx, report.Build("run-2", nil), 0, 0))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, 4, first.RowsLoaded)
	assert.Equal(t, 2, first.RowsDropped)
	assert.Equal(t, 2, first.RowsKept)
	assert.InDelta(t, 28.75, first.MeanPM10, 1e-9)
	require.True(t, first.PeakPM10.Valid)
	assert.Equal(t, 45.0, first.PeakPM10.Float64)
	assert.Equal(t, "2019-01-15", first.PeakDate.String)
	assert.Equal(t, "종로구", first.PeakDistrict.String)

	assert.False(t, runs[1].PeakPM10.Valid)
	assert.False(t, runs[1].PeakDate.Valid)
}

func TestStore_RecordRunDuplicateID(t *testing.T) {
	s, _ := openStore(t)
	ctx := context.Background()

	rep := report.Build("run-1", observations())
	require.NoError(t, s.RecordRun(ctx, rep, 2, 0))
	assert.Error(t, s.RecordRun(ctx, rep, 2, 0))
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s, path := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, observations()))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(ctx, path, slog.Default())
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Migrate(ctx))
	got, err := reopened.Observations(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
