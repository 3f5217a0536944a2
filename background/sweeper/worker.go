package sweeper

import (
	"time"

	"github.com/uber-go/tally"
	"go.uber.org/cadence/.gen/go/cadence/workflowserviceclient"
	"go.uber.org/cadence/activity"
	"go.uber.org/cadence/worker"
	"go.uber.org/cadence/workflow"
	"go.uber.org/zap"

	"github.com/helpme-app/helpme-api/external/cadence"
	"github.com/helpme-app/helpme-api/store"
)

const TaskListName = "helpme-sweeper-tasks"

// RequestCanceller cancels requests through the dispatcher so offers and
// helpers are released with the request
type RequestCanceller interface {
	CancelStale(requestID string, createdBefore time.Time) (bool, error)
}

type SweepWorker struct {
	domain    string
	store     store.HelpCore
	canceller RequestCanceller
}

func NewSweepWorker(domain string, helpStore store.HelpCore, canceller RequestCanceller) *SweepWorker {
	return &SweepWorker{
		domain:    domain,
		store:     helpStore,
		canceller: canceller,
	}
}

func (s *SweepWorker) Register() {
	workflow.RegisterWithOptions(s.StaleRequestSweepWorkflow, workflow.RegisterOptions{Name: SweepWorkflow})

	activity.RegisterWithOptions(s.ListStaleRequestsActivity, activity.RegisterOptions{Name: "ListStaleRequestsActivity"})
	activity.RegisterWithOptions(s.CancelStaleRequestActivity, activity.RegisterOptions{Name: "CancelStaleRequestActivity"})
}

// Start polls the sweeper task list until the returned worker is stopped
func (s *SweepWorker) Start(service workflowserviceclient.Interface, logger *zap.Logger, scope tally.Scope) (worker.Worker, error) {
	if scope == nil {
		scope = tally.NoopScope
	}

	workerOptions := worker.Options{
		Logger:        logger,
		MetricsScope:  scope,
		DataConverter: cadence.NewMsgPackDataConverter(),
	}

	w := worker.New(
		service,
		s.domain,
		TaskListName,
		workerOptions)

	if err := w.Start(); err != nil {
		return nil, err
	}

	logger.Info("Started Worker.", zap.String("worker", TaskListName))
	return w, nil
}
