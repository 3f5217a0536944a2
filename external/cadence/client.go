package cadence

import (
	"context"

	"github.com/uber-go/tally"
	"go.uber.org/cadence/.gen/go/cadence/workflowserviceclient"
	"go.uber.org/cadence/client"
	"go.uber.org/cadence/workflow"
	"go.uber.org/yarpc"
	"go.uber.org/yarpc/transport/tchannel"
)

const (
	ClientName     = "helpme-worker"
	CadenceService = "cadence-frontend"
)

// CadenceClient starts and signals workflows of one domain. The same
// connection serves the workers polling that domain.
type CadenceClient struct {
	dispatcher *yarpc.Dispatcher
	service    workflowserviceclient.Interface
	client     client.Client
}

func newDispatcher(hostPort string) (*yarpc.Dispatcher, error) {
	ch, err := tchannel.NewChannelTransport(tchannel.ServiceName(ClientName))
	if err != nil {
		return nil, err
	}

	dispatcher := yarpc.NewDispatcher(yarpc.Config{
		Name: ClientName,
		Outbounds: yarpc.Outbounds{
			CadenceService: {Unary: ch.NewSingleOutbound(hostPort)},
		},
	})
	if err := dispatcher.Start(); err != nil {
		return nil, err
	}
	return dispatcher, nil
}

// NewClient connects to the cadence frontend at hostPort. A nil scope
// disables client metrics.
func NewClient(hostPort, domain string, scope tally.Scope) (*CadenceClient, error) {
	dispatcher, err := newDispatcher(hostPort)
	if err != nil {
		return nil, err
	}

	if scope == nil {
		scope = tally.NoopScope
	}

	service := workflowserviceclient.New(dispatcher.ClientConfig(CadenceService))
	return &CadenceClient{
		dispatcher: dispatcher,
		service:    service,
		client: client.NewClient(service, domain, &client.Options{
			Identity:      ClientName,
			MetricsScope:  scope,
			DataConverter: NewMsgPackDataConverter(),
		}),
	}, nil
}

// Service returns the raw service client workers poll with
func (c *CadenceClient) Service() workflowserviceclient.Interface {
	return c.service
}

func (c *CadenceClient) SignalWithStartWorkflow(ctx context.Context,
	workflowID string, signalName string, signalArg interface{},
	options client.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (*workflow.Execution, error) {
	return c.client.SignalWithStartWorkflow(ctx, workflowID, signalName, signalArg, options, workflow, workflowArgs...)
}

// Close stops the underlying transport
func (c *CadenceClient) Close() error {
	return c.dispatcher.Stop()
}
