package sweeper

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/cadence/workflow"
	"go.uber.org/zap"
)

const (
	SweepInterval = 10 * time.Minute
	SweepSignal   = "sweepSignal"
	SweepWorkflow = "StaleRequestSweepWorkflow"
)

var activityOptions = workflow.ActivityOptions{
	ScheduleToStartTimeout: time.Minute,
	StartToCloseTimeout:    time.Minute,
	HeartbeatTimeout:       time.Second * 20,
}

// StaleRequestSweepWorkflow waits for the sweep interval or a sweep signal,
// cancels every request that stayed active too long and starts over
func (s *SweepWorker) StaleRequestSweepWorkflow(ctx workflow.Context) error {
	ctx = workflow.WithActivityOptions(ctx, activityOptions)
	signalChan := workflow.GetSignalChannel(ctx, SweepSignal)

	logger := workflow.GetLogger(ctx)
	selector := workflow.NewSelector(ctx)

	timerCancelCtx, cancelTimerHandler := workflow.WithCancel(ctx)
	timerFuture := workflow.NewTimer(timerCancelCtx, SweepInterval)
	selector.AddFuture(timerFuture, func(f workflow.Future) {
		logger.Info("Start periodic stale request sweep")
	})

	selector.AddReceive(signalChan, func(c workflow.Channel, more bool) {
		cancelTimerHandler()
		c.Receive(ctx, nil)

		logger.Info("Trigger stale request sweep by signal")
	})

	selector.Select(ctx)

	var stale []string
	if err := workflow.ExecuteActivity(ctx, s.ListStaleRequestsActivity).Get(ctx, &stale); err != nil {
		logger.Error("Fail to list stale requests.", zap.Error(err))
		sentry.CaptureException(err)
		return workflow.NewContinueAsNewError(ctx, s.StaleRequestSweepWorkflow)
	}

	cancelled := 0
	for _, id := range stale {
		var ok bool
		if err := workflow.ExecuteActivity(ctx, s.CancelStaleRequestActivity, id).Get(ctx, &ok); err != nil {
			logger.Error("Fail to cancel stale request.", zap.String("request", id), zap.Error(err))
			sentry.CaptureException(err)
			continue
		}
		if ok {
			cancelled++
		}
	}

	logger.Info("Stale request sweep finished.", zap.Int("stale", len(stale)), zap.Int("cancelled", cancelled))
	return workflow.NewContinueAsNewError(ctx, s.StaleRequestSweepWorkflow)
}
