package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shelflife/domain/core"
	"shelflife/domain/stability"
	"shelflife/internal/analysis"
	"shelflife/internal/errors"
)

type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Save(ctx context.Context, run *stability.AnalysisRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Get(ctx context.Context, id core.ID) (*stability.AnalysisRun, error) {
	args := m.Called(ctx, id)
	run, _ := args.Get(0).(*stability.AnalysisRun)
	return run, args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, limit int) ([]*stability.AnalysisRun, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]*stability.AnalysisRun)
	return runs, args.Error(1)
}

func TestAnalyzeObservations_SaveFailure(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*stability.AnalysisRun")).
		Return(errors.DatabaseError("insert", fmt.Errorf("connection reset")))

	svc := NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), repo)
	_, err := svc.AnalyzeObservations(context.Background(), SourceAPI, assayObservations(), 95)

	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	repo.AssertExpectations(t)
}

func TestAnalyzeObservations_SavesBeforeReturning(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(run *stability.AnalysisRun) bool {
		return run.Source == SourceAPI && len(run.Reports) == 1 && !run.ID.IsEmpty()
	})).Return(nil).Once()

	svc := NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), repo)
	_, err := svc.AnalyzeObservations(context.Background(), SourceAPI, assayObservations(), 95)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListRuns_PropagatesError(t *testing.T) {
	repo := new(MockRunRepository)
	repo.On("List", mock.Anything, 5).Return(nil, errors.DatabaseError("select", fmt.Errorf("timeout")))

	svc := NewAnalysisService(analysis.NewEngine(stability.DefaultConditions()), repo)
	_, err := svc.ListRuns(context.Background(), 5)

	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
