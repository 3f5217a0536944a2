package sweeper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/cadence/testsuite"
	"go.uber.org/cadence/worker"
	"go.uber.org/zap"

	"github.com/helpme-app/helpme-api/external/cadence"
)

type SweepWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env    *testsuite.TestWorkflowEnvironment
	worker *SweepWorker
}

func (ts *SweepWorkflowTestSuite) SetupSuite() {
	ts.SetLogger(zap.NewNop())
	ts.worker = NewSweepWorker("test", nil, nil)
}

func (ts *SweepWorkflowTestSuite) SetupTest() {
	ts.env = ts.NewTestWorkflowEnvironment()
	ts.env.SetWorkerOptions(worker.Options{
		DataConverter: cadence.NewMsgPackDataConverter(),
	})
}

// TestSweepOnInterval runs a sweep once the timer fires
func (ts *SweepWorkflowTestSuite) TestSweepOnInterval() {
	ts.env.OnActivity(ts.worker.ListStaleRequestsActivity, mock.Anything).Return(
		func(ctx context.Context) ([]string, error) {
			return []string{"r1", "r2"}, nil
		})

	cancelled := make([]string, 0)
	ts.env.OnActivity(ts.worker.CancelStaleRequestActivity, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, requestID string) (bool, error) {
			cancelled = append(cancelled, requestID)
			return true, nil
		})

	ts.env.ExecuteWorkflow(ts.worker.StaleRequestSweepWorkflow)

	ts.env.AssertNumberOfCalls(ts.T(), "ListStaleRequestsActivity", 1)
	ts.env.AssertNumberOfCalls(ts.T(), "CancelStaleRequestActivity", 2)
	ts.Equal([]string{"r1", "r2"}, cancelled)
	ts.True(ts.env.IsWorkflowCompleted())
	ts.EqualError(ts.env.GetWorkflowError(), "ContinueAsNew")
}

// TestSweepOnSignal runs a sweep before the interval when signalled
func (ts *SweepWorkflowTestSuite) TestSweepOnSignal() {
	ts.env.RegisterDelayedCallback(func() {
		ts.env.SignalWorkflow(SweepSignal, nil)
	}, time.Minute)

	var sweptAt time.Time
	ts.env.OnActivity(ts.worker.ListStaleRequestsActivity, mock.Anything).Return(
		func(ctx context.Context) ([]string, error) {
			sweptAt = ts.env.Now()
			return []string{}, nil
		})

	start := ts.env.Now()
	ts.env.ExecuteWorkflow(ts.worker.StaleRequestSweepWorkflow)

	ts.env.AssertNumberOfCalls(ts.T(), "ListStaleRequestsActivity", 1)
	ts.env.AssertNumberOfCalls(ts.T(), "CancelStaleRequestActivity", 0)
	ts.True(sweptAt.Sub(start) < SweepInterval)
	ts.EqualError(ts.env.GetWorkflowError(), "ContinueAsNew")
}

// TestSweepContinuesAfterCancelFailure keeps sweeping when one request fails
func (ts *SweepWorkflowTestSuite) TestSweepContinuesAfterCancelFailure() {
	ts.env.OnActivity(ts.worker.ListStaleRequestsActivity, mock.Anything).Return(
		func(ctx context.Context) ([]string, error) {
			return []string{"r1", "r2"}, nil
		})

	ts.env.OnActivity(ts.worker.CancelStaleRequestActivity, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, requestID string) (bool, error) {
			if requestID == "r1" {
				return false, fmt.Errorf("dispatcher unavailable")
			}
			return true, nil
		})

	ts.env.ExecuteWorkflow(ts.worker.StaleRequestSweepWorkflow)

	ts.env.AssertNumberOfCalls(ts.T(), "CancelStaleRequestActivity", 2)
	ts.EqualError(ts.env.GetWorkflowError(), "ContinueAsNew")
}

// TestSweepListFailure starts over when stale requests cannot be listed
func (ts *SweepWorkflowTestSuite) TestSweepListFailure() {
	ts.env.OnActivity(ts.worker.ListStaleRequestsActivity, mock.Anything).Return(
		func(ctx context.Context) ([]string, error) {
			return nil, fmt.Errorf("database is down")
		})

	ts.env.ExecuteWorkflow(ts.worker.StaleRequestSweepWorkflow)

	ts.env.AssertNumberOfCalls(ts.T(), "CancelStaleRequestActivity", 0)
	ts.EqualError(ts.env.GetWorkflowError(), "ContinueAsNew")
}

func TestSweepWorkflow(t *testing.T) {
	suite.Run(t, new(SweepWorkflowTestSuite))
}
