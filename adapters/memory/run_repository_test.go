package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelflife/domain/core"
	"shelflife/domain/stability"
)

func newRun(created time.Time) *stability.AnalysisRun {
	return &stability.AnalysisRun{
		ID:        core.NewID(),
		Source:    "api",
		SpecLimit: 95,
		CreatedAt: created,
		Reports: []stability.AnalysisReport{
			{Condition: "25C_60RH", Parameter: "assay"},
		},
	}
}

func TestRunRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()
	run := newRun(time.Now())

	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)

	// stored copy is isolated from later caller mutation
	run.Reports[0].Parameter = "changed"
	got, err = repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "assay", got.Reports[0].Parameter)
}

func TestRunRepository_GetMissing(t *testing.T) {
	_, err := NewRunRepository().Get(context.Background(), core.NewID())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRunNotFound)
	assert.True(t, core.IsNotFoundError(err))
}

func TestRunRepository_SaveRejectsEmptyID(t *testing.T) {
	repo := NewRunRepository()
	assert.Error(t, repo.Save(context.Background(), &stability.AnalysisRun{}))
	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestRunRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older, newer, newest := newRun(base), newRun(base.Add(time.Hour)), newRun(base.Add(2*time.Hour))
	for _, run := range []*stability.AnalysisRun{newer, older, newest} {
		require.NoError(t, repo.Save(ctx, run))
	}

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []core.ID{newest.ID, newer.ID, older.ID}, []core.ID{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.Nil(t, runs[0].Reports)

	runs, err = repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
