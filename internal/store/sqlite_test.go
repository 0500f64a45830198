package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statadvice/accidents/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRun() model.AnalysisRun {
	return model.AnalysisRun{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		EpsMeters: 200,
		MinPts:    10,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestRunLifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	run := testRun()
	require.NoError(t, st.CreateRun(ctx, run))

	run.Status = model.RunStatusComplete
	run.Records = 42
	run.Districts = 18
	run.Clusters = 3
	run.FinishedAt = run.StartedAt.Add(time.Minute)
	require.NoError(t, st.FinishRun(ctx, run))

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, 42, got.Records)
	assert.Equal(t, 18, got.Districts)
	assert.Equal(t, 3, got.Clusters)
	assert.Equal(t, 200.0, got.EpsMeters)
	assert.Empty(t, got.Error)
}

func TestListRunsOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	older := testRun()
	older.StartedAt = time.Now().UTC().Add(-time.Hour)
	newer := testRun()

	require.NoError(t, st.CreateRun(ctx, older))
	require.NoError(t, st.CreateRun(ctx, newer))

	runs, err := st.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)

	limited, err := st.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReplaceAccidents(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := []model.AccidentRecord{
		{ID: "a", Time: time.Now().UTC(), Severity: model.SeverityLight, SeverityBinary: model.BinaryLight, District: "Nevskij", Lat: 59.93, Lon: 30.30, Cluster: 1},
		{ID: "b", Time: time.Now().UTC(), Severity: model.SeverityFatal, SeverityBinary: model.BinarySevereFatal, District: "Tsentralnyj", Lat: 59.95, Lon: 30.32},
	}
	require.NoError(t, st.ReplaceAccidents(ctx, first))

	n, err := st.CountAccidents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Replace swaps the table, not appends.
	second := first[:1]
	require.NoError(t, st.ReplaceAccidents(ctx, second))

	n, err = st.CountAccidents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
