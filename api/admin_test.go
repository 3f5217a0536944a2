package api

import (
	"context"
	"fmt"
	"net/http"

	cadenceClient "go.uber.org/cadence/client"
	"go.uber.org/cadence/workflow"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/utils"
)

type fakeSignaler struct {
	workflowIDs []string
	err         error
}

func (f *fakeSignaler) SignalWithStartWorkflow(ctx context.Context,
	workflowID string, signalName string, signalArg interface{},
	options cadenceClient.StartWorkflowOptions, wf interface{}, workflowArgs ...interface{}) (*workflow.Execution, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.workflowIDs = append(f.workflowIDs, workflowID)
	return &workflow.Execution{ID: workflowID}, nil
}

func (s *ServerTestSuite) TestSecretRoutesRequireAPIKey() {
	s.Equal(http.StatusForbidden, s.call("GET", "/secret/stats", "", "", nil, nil))
	s.Equal(http.StatusForbidden, s.call("GET", "/secret/stats", "", "", nil, nil, withAPIKey("nope")))
}

func (s *ServerTestSuite) TestStats() {
	s.addHelper("H1", geo.Offset(riyadh, 100, 0))
	req := s.createRequest("alice")
	s.createRequest("bob")
	_, err := s.dispatcher.Accept(req.ID, "H1")
	s.Require().NoError(err)

	s.storeMock.EXPECT().RequestStats().Return(schema.RequestStats{Total: 10, Completed: 7, Cancelled: 3}, nil)

	var resp struct {
		Live   schema.RequestStats `json:"live"`
		Stored schema.RequestStats `json:"stored"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/secret/stats", "", "", nil, &resp, withAPIKey(adminAPIKey)))

	s.Equal(2, resp.Live.Total)
	s.Equal(1, resp.Live.Active)
	s.Equal(1, resp.Live.Accepted)
	s.Equal(1, resp.Live.AvailableHelpers)
	s.Equal(1, resp.Live.BusyHelpers)
	s.Equal(7, resp.Stored.Completed)
}

func (s *ServerTestSuite) TestStatsStoreError() {
	s.storeMock.EXPECT().RequestStats().Return(schema.RequestStats{}, fmt.Errorf("timeout"))
	s.Equal(http.StatusInternalServerError, s.call("GET", "/secret/stats", "", "", nil, nil, withAPIKey(adminAPIKey)))
}

func (s *ServerTestSuite) TestRematchRequest() {
	req := s.createRequest("alice")
	s.Empty(s.dispatcher.PendingOffersFor("H1"))

	s.addHelper("H1", geo.Offset(riyadh, 100, 0))
	s.Equal(http.StatusOK, s.call("POST", "/secret/requests/"+req.ID+"/rematch", "", "", nil, nil, withAPIKey(adminAPIKey)))
	s.Len(s.dispatcher.PendingOffersFor("H1"), 1)

	_, err := s.dispatcher.CancelRequest(req.ID, "alice")
	s.Require().NoError(err)

	var resp ErrorResponse
	s.Equal(http.StatusConflict, s.call("POST", "/secret/requests/"+req.ID+"/rematch", "", "", nil, &resp, withAPIKey(adminAPIKey)))
	s.Equal(http.StatusNotFound, s.call("POST", "/secret/requests/missing/rematch", "", "", nil, &resp, withAPIKey(adminAPIKey)))
}

func (s *ServerTestSuite) TestTriggerSweep() {
	s.Equal(http.StatusServiceUnavailable, s.call("POST", "/secret/sweep", "", "", nil, nil, withAPIKey(adminAPIKey)))

	signaler := &fakeSignaler{}
	s.server.cadenceClient = signaler
	s.Equal(http.StatusOK, s.call("POST", "/secret/sweep", "", "", nil, nil, withAPIKey(adminAPIKey)))
	s.Equal([]string{utils.SweeperID}, signaler.workflowIDs)

	signaler.err = fmt.Errorf("cadence is down")
	s.Equal(http.StatusInternalServerError, s.call("POST", "/secret/sweep", "", "", nil, nil, withAPIKey(adminAPIKey)))
}
