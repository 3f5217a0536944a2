package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/matching"
	"github.com/helpme-app/helpme-api/schema"
)

func flatTire() gin.H {
	return gin.H{
		"category":    "car_breakdown",
		"title":       "Flat tire",
		"description": "Need help changing a flat tire",
		"location":    riyadh,
	}
}

func (s *ServerTestSuite) createRequest(requesterID string) schema.HelpRequest {
	var req schema.HelpRequest
	s.Require().Equal(http.StatusOK, s.call("POST", "/api/requests", requesterID, schema.RoleRequester, flatTire(), &req))
	return req
}

func (s *ServerTestSuite) TestCreateRequest() {
	req := s.createRequest("alice")

	s.Equal("id-1", req.ID)
	s.Equal("alice", req.RequesterID)
	s.Equal(schema.RequestActive, req.Status)
	s.Equal(schema.CategoryCarBreakdown, req.Category)
	s.Empty(req.HelperID)
}

func (s *ServerTestSuite) TestCreateRequestFromGeoPosition() {
	body := flatTire()
	delete(body, "location")

	var req schema.HelpRequest
	s.Equal(http.StatusOK, s.call("POST", "/api/requests", "alice", schema.RoleRequester, body, &req, withGeoPosition(riyadh)))
	s.InDelta(riyadh.Latitude, req.Location.Latitude, 1e-6)

	var resp ErrorResponse
	s.Equal(http.StatusBadRequest, s.call("POST", "/api/requests", "alice", schema.RoleRequester, body, &resp))
	s.Equal(errorUnknownLocation.Code, resp.Code)
}

func (s *ServerTestSuite) TestCreateRequestValidation() {
	body := flatTire()
	body["title"] = "   "

	var resp ErrorResponse
	s.Equal(http.StatusBadRequest, s.call("POST", "/api/requests", "alice", schema.RoleRequester, body, &resp))
	s.Equal(errorInvalidHelpRequest.Code, resp.Code)
	s.Contains(resp.Message, "title")

	body = flatTire()
	body["category"] = "gardening"
	s.Equal(http.StatusBadRequest, s.call("POST", "/api/requests", "alice", schema.RoleRequester, body, &resp))
	s.Contains(resp.Message, "category")

	s.Empty(s.dispatcher.ListActiveRequests())
}

func (s *ServerTestSuite) TestHelperCannotCreateRequest() {
	var resp ErrorResponse
	s.Equal(http.StatusForbidden, s.call("POST", "/api/requests", "h1", schema.RoleHelper, flatTire(), &resp))
	s.Equal(errorPermissionDenied.Code, resp.Code)
}

// TestAcceptFlow walks the nearest helper ignoring and the next one accepting
func (s *ServerTestSuite) TestAcceptFlow() {
	s.addHelper("H1", geo.Offset(riyadh, 100, 0))
	s.addHelper("H2", geo.Offset(riyadh, 500, 0))

	req := s.createRequest("alice")

	var offers struct {
		Result []schema.Offer `json:"result"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/api/helpers/me/offers", "H1", schema.RoleHelper, nil, &offers))
	s.Require().Len(offers.Result, 1)
	s.Equal(req.ID, offers.Result[0].RequestID)

	s.Equal(http.StatusOK, s.call("POST", "/api/requests/"+req.ID+"/ignore", "H1", schema.RoleHelper, nil, nil))

	var resp ErrorResponse
	s.Equal(http.StatusGone, s.call("POST", "/api/requests/"+req.ID+"/accept", "H1", schema.RoleHelper, nil, &resp))
	s.Equal(errorOfferNotAvailable.Code, resp.Code)

	var accepted schema.HelpRequest
	s.Equal(http.StatusOK, s.call("POST", "/api/requests/"+req.ID+"/accept", "H2", schema.RoleHelper, nil, &accepted))
	s.Equal(schema.RequestAccepted, accepted.Status)
	s.Equal("H2", accepted.HelperID)

	var completed schema.HelpRequest
	s.Equal(http.StatusForbidden, s.call("POST", "/api/requests/"+req.ID+"/complete", "H1", schema.RoleHelper, nil, &resp))
	s.Equal(http.StatusOK, s.call("POST", "/api/requests/"+req.ID+"/complete", "H2", schema.RoleHelper, nil, &completed))
	s.Equal(schema.RequestCompleted, completed.Status)

	s.Equal(http.StatusConflict, s.call("POST", "/api/requests/"+req.ID+"/cancel", "alice", schema.RoleRequester, nil, &resp))
	s.Equal(errorInvalidTransition.Code, resp.Code)
}

func (s *ServerTestSuite) TestCompleteActiveRequest() {
	req := s.createRequest("alice")

	var resp ErrorResponse
	s.Equal(http.StatusConflict, s.call("POST", "/api/requests/"+req.ID+"/complete", "H1", schema.RoleHelper, nil, &resp))
	s.Equal(errorInvalidTransition.Code, resp.Code)
}

func (s *ServerTestSuite) TestCancelRequest() {
	req := s.createRequest("alice")

	var resp ErrorResponse
	s.Equal(http.StatusForbidden, s.call("POST", "/api/requests/"+req.ID+"/cancel", "bob", schema.RoleRequester, nil, &resp))
	s.Equal(errorNotPartOfRequest.Code, resp.Code)

	var cancelled schema.HelpRequest
	s.Equal(http.StatusOK, s.call("POST", "/api/requests/"+req.ID+"/cancel", "alice", schema.RoleRequester, nil, &cancelled))
	s.Equal(schema.RequestCancelled, cancelled.Status)
	s.Equal("alice", cancelled.CancelledBy)
}

func (s *ServerTestSuite) TestUnknownRequest() {
	var resp ErrorResponse
	s.Equal(http.StatusNotFound, s.call("GET", "/api/requests/missing", "alice", schema.RoleRequester, nil, &resp))
	s.Equal(errorRequestNotExist.Code, resp.Code)

	s.Equal(http.StatusNotFound, s.call("POST", "/api/requests/missing/accept", "H1", schema.RoleHelper, nil, &resp))
}

func (s *ServerTestSuite) TestGetRequestVisibility() {
	req := s.createRequest("alice")

	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID, "alice", schema.RoleRequester, nil, nil))
	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID, "H9", schema.RoleHelper, nil, nil))
	s.Equal(http.StatusForbidden, s.call("GET", "/api/requests/"+req.ID, "bob", schema.RoleRequester, nil, nil))

	_, err := s.dispatcher.CancelRequest(req.ID, "alice")
	s.NoError(err)
	s.Equal(http.StatusForbidden, s.call("GET", "/api/requests/"+req.ID, "H9", schema.RoleHelper, nil, nil))
	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID, "root", schema.RoleAdmin, nil, nil))
}

func (s *ServerTestSuite) TestListMyRequests() {
	s.createRequest("alice")
	s.createRequest("alice")
	s.createRequest("bob")

	var resp struct {
		Result []schema.HelpRequest `json:"result"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/api/requests", "alice", schema.RoleRequester, nil, &resp))
	s.Len(resp.Result, 2)
}

func (s *ServerTestSuite) TestCandidatesAndOffers() {
	s.addHelper("H1", geo.Offset(riyadh, 100, 0))
	s.addHelper("H2", geo.Offset(riyadh, 500, 0))
	req := s.createRequest("alice")

	var candidates struct {
		Result []matching.Candidate `json:"result"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID+"/candidates", "alice", schema.RoleRequester, nil, &candidates))
	s.Require().Len(candidates.Result, 1)
	s.Equal("H2", candidates.Result[0].Helper.ID)

	var offers struct {
		Result []schema.Offer `json:"result"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID+"/offers", "alice", schema.RoleRequester, nil, &offers))
	s.Require().Len(offers.Result, 1)
	s.Equal("H1", offers.Result[0].HelperID)
	s.Equal(schema.OfferPending, offers.Result[0].Resolution)

	s.Equal(http.StatusForbidden, s.call("GET", "/api/requests/"+req.ID+"/offers", "bob", schema.RoleRequester, nil, nil))
	s.Equal(http.StatusOK, s.call("GET", "/api/requests/"+req.ID+"/offers", "root", schema.RoleAdmin, nil, nil))
}

func (s *ServerTestSuite) TestBrowseRequests() {
	first := s.createRequest("alice")
	s.clock.Add(1)

	body := flatTire()
	body["location"] = geo.Offset(riyadh, 5000, 0)
	var far schema.HelpRequest
	s.Require().Equal(http.StatusOK, s.call("POST", "/api/requests", "bob", schema.RoleRequester, body, &far))

	var resp struct {
		Result []struct {
			ID       string   `json:"id"`
			Distance *float64 `json:"distance"`
		} `json:"result"`
	}

	s.Equal(http.StatusOK, s.call("GET", "/api/browse", "H1", schema.RoleHelper, nil, &resp))
	s.Require().Len(resp.Result, 2)
	s.Equal(far.ID, resp.Result[0].ID)
	s.Nil(resp.Result[0].Distance)

	s.Equal(http.StatusOK, s.call("GET", "/api/browse?filter=nearest", "H1", schema.RoleHelper, nil, &resp,
		withGeoPosition(geo.Offset(riyadh, 10, 0))))
	s.Require().Len(resp.Result, 2)
	s.Equal(first.ID, resp.Result[0].ID)
	s.NotNil(resp.Result[0].Distance)

	var errResp ErrorResponse
	s.Equal(http.StatusBadRequest, s.call("GET", "/api/browse?filter=nearest", "H1", schema.RoleHelper, nil, &errResp))
	s.Equal(errorUnknownLocation.Code, errResp.Code)

	s.Equal(http.StatusBadRequest, s.call("GET", "/api/browse?filter=oldest", "H1", schema.RoleHelper, nil, nil))
}

func (s *ServerTestSuite) TestRequestMap() {
	s.addHelper("H1", geo.Offset(riyadh, 100, 0))
	s.Require().NoError(s.dispatcher.RegisterHelper(schema.Helper{ID: "H2", Name: "H2"}))
	s.createRequest("alice")

	s.mongoMock.EXPECT().
		NearestHelpers(gomock.Any(), 50000, gomock.Any()).
		Return([]string{"H1", "H2", "H3"}, nil)

	var resp struct {
		Requests []schema.HelpRequest `json:"requests"`
		Helpers  []mapHelper          `json:"helpers"`
	}
	s.Equal(http.StatusOK, s.call("GET", "/api/map", "alice", schema.RoleRequester, nil, &resp, withGeoPosition(riyadh)))
	s.Len(resp.Requests, 1)
	s.Require().Len(resp.Helpers, 1)
	s.Equal("H1", resp.Helpers[0].ID)
}
