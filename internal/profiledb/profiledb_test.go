package profiledb

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/covariance"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/gam"
	"github.com/nemochina2008/frontiers-palaeo-additive-modelling/internal/profiler"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleResult() *profiler.Result {
	return &profiler.Result{
		Profiles: []profiler.FamilyProfile{
			{
				Family: covariance.Matern{Order: covariance.OrderThreeHalves},
				Scores: []profiler.Cell{
					{Range: 10, Score: -5.2},
					{Range: 20, Score: -7.9},
					{Range: 30, Score: math.Inf(1)},
				},
				BestRange: 20,
				BestScore: -7.9,
				Model:     &gam.FittedModel{Lambda: 0.03, EDF: 8.4},
			},
			{
				Family: covariance.SquaredExponential{},
				Scores: []profiler.Cell{
					{Range: 10, Score: math.Inf(1)},
					{Range: 20, Score: math.Inf(1)},
					{Range: 30, Score: math.Inf(1)},
				},
				Err: &profiler.AllCandidatesFailedError{Family: "se"},
			},
		},
	}
}

func TestOpenMigratesSchema(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	// Opening again is a no-op, not an error.
	require.NoError(t, db.MigrateUp())
}

func TestRecordAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runID, err := db.RecordRun(ctx, RunMeta{
		Dataset:   "smallwater",
		Criterion: "REML",
		GridMin:   10, GridMax: 30, GridCount: 3, BasisDim: 20,
	}, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	scores, err := db.LoadScores(ctx, runID)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	m32 := scores["matern32"]
	require.Len(t, m32, 3)
	assert.Equal(t, []float64{10, 20, 30}, []float64{m32[0].Range, m32[1].Range, m32[2].Range})
	assert.Equal(t, -7.9, m32[1].Score)
	assert.True(t, math.IsInf(m32[2].Score, 1), "stored NULL must read back as +Inf")

	se := scores["se"]
	require.Len(t, se, 3)
	for _, c := range se {
		assert.True(t, math.IsInf(c.Score, 1))
	}

	sels, err := db.LoadSelections(ctx, runID)
	require.NoError(t, err)
	require.Len(t, sels, 1, "failed family must not produce a selection row")
	assert.Equal(t, Selection{
		Family: "matern32", BestRange: 20, BestScore: -7.9, Lambda: 0.03, EDF: 8.4,
	}, sels[0])
}

func TestRecordRunKeepsProvidedID(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runID, err := db.RecordRun(ctx, RunMeta{RunID: "run-fixed", Dataset: "brayaso", Criterion: "GCV"},
		sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", runID)

	// Same ID twice violates the primary key.
	_, err = db.RecordRun(ctx, RunMeta{RunID: "run-fixed", Dataset: "brayaso", Criterion: "GCV"},
		sampleResult())
	assert.Error(t, err)
}

func TestLoadScoresUnknownRun(t *testing.T) {
	db := openTestDB(t)

	_, err := db.LoadScores(context.Background(), "no-such-run")
	assert.Error(t, err)

	sels, err := db.LoadSelections(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Empty(t, sels)
}
