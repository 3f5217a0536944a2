package utils

import (
	"context"
	"time"

	cadenceClient "go.uber.org/cadence/client"
	"go.uber.org/cadence/workflow"
)

// These mirror the sweeper package, which cannot be imported from here
// without a cycle through dispatch.
const (
	SweeperTaskList = "helpme-sweeper-tasks"
	SweeperWorkflow = "StaleRequestSweepWorkflow"
	SweeperSignal   = "sweepSignal"
	SweeperID       = "stale-request-sweep"
)

type WorkflowSignaler interface {
	SignalWithStartWorkflow(ctx context.Context,
		workflowID string, signalName string, signalArg interface{},
		options cadenceClient.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (*workflow.Execution, error)
}

// TriggerSweep signals the stale request sweeper to run now, starting the
// workflow if it is not running yet.
func TriggerSweep(client WorkflowSignaler, c context.Context) error {
	_, err := client.SignalWithStartWorkflow(c,
		SweeperID, SweeperSignal, nil,
		cadenceClient.StartWorkflowOptions{
			ID:                           SweeperID,
			TaskList:                     SweeperTaskList,
			ExecutionStartToCloseTimeout: 24 * time.Hour,
			WorkflowIDReusePolicy:        cadenceClient.WorkflowIDReusePolicyAllowDuplicate,
		}, SweeperWorkflow)
	return err
}
