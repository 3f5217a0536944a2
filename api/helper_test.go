package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
)

func (s *ServerTestSuite) TestRegisterHelper() {
	s.storeMock.EXPECT().SaveHelper(gomock.Any()).DoAndReturn(func(h schema.Helper) error {
		s.Equal("H1", h.ID)
		s.Equal("Sara", h.Name)
		s.False(h.Available)
		return nil
	})

	var h schema.Helper
	s.Equal(http.StatusOK, s.call("POST", "/api/helpers", "H1", schema.RoleHelper, gin.H{"name": "Sara"}, &h))
	s.Equal("H1", h.ID)
	s.False(h.CreatedAt.IsZero())

	var resp ErrorResponse
	s.Equal(http.StatusConflict, s.call("POST", "/api/helpers", "H1", schema.RoleHelper, gin.H{"name": "Sara"}, &resp))
	s.Equal(errorHelperExists.Code, resp.Code)

	s.Equal(http.StatusBadRequest, s.call("POST", "/api/helpers", "H2", schema.RoleHelper, gin.H{}, nil))
}

func (s *ServerTestSuite) TestRequesterCannotRegisterAsHelper() {
	var resp ErrorResponse
	s.Equal(http.StatusForbidden, s.call("POST", "/api/helpers", "alice", schema.RoleRequester, gin.H{"name": "Alice"}, &resp))
	s.Equal(errorPermissionDenied.Code, resp.Code)
}

func (s *ServerTestSuite) TestHelperDetail() {
	var resp ErrorResponse
	s.Equal(http.StatusNotFound, s.call("GET", "/api/helpers/me", "H1", schema.RoleHelper, nil, &resp))
	s.Equal(errorHelperNotFound.Code, resp.Code)

	s.addHelper("H1", riyadh)

	var h schema.Helper
	s.Equal(http.StatusOK, s.call("GET", "/api/helpers/me", "H1", schema.RoleHelper, nil, &h))
	s.True(h.Available)
}

func (s *ServerTestSuite) TestAvailabilityToggle() {
	s.Require().NoError(s.dispatcher.RegisterHelper(schema.Helper{ID: "H1", Name: "H1"}))

	s.mongoMock.EXPECT().UpsertHelperLocation(gomock.Any(), "H1", gomock.Any()).Return(nil)
	s.storeMock.EXPECT().SaveHelper(gomock.Any()).Return(nil).Times(2)

	var h schema.Helper
	s.Equal(http.StatusOK, s.call("PUT", "/api/helpers/me/availability", "H1", schema.RoleHelper,
		gin.H{"latitude": riyadh.Latitude, "longitude": riyadh.Longitude}, &h))
	s.True(h.Available)
	s.Require().NotNil(h.Location)
	s.True(s.dispatcher.Tracker().IsEligible("H1"))

	h = schema.Helper{}
	s.Equal(http.StatusOK, s.call("DELETE", "/api/helpers/me/availability", "H1", schema.RoleHelper, nil, &h))
	s.False(h.Available)
	s.Nil(h.Location)
	s.False(s.dispatcher.Tracker().IsEligible("H1"))
}

func (s *ServerTestSuite) TestGoAvailableWithGeoPosition() {
	s.Require().NoError(s.dispatcher.RegisterHelper(schema.Helper{ID: "H1", Name: "H1"}))

	s.mongoMock.EXPECT().UpsertHelperLocation(gomock.Any(), "H1", gomock.Any()).Return(nil)
	s.storeMock.EXPECT().SaveHelper(gomock.Any()).Return(nil)

	var h schema.Helper
	s.Equal(http.StatusOK, s.call("PUT", "/api/helpers/me/availability", "H1", schema.RoleHelper, nil, &h, withGeoPosition(riyadh)))
	s.True(h.Available)
}

func (s *ServerTestSuite) TestGoAvailableInvalidCoordinate() {
	s.Require().NoError(s.dispatcher.RegisterHelper(schema.Helper{ID: "H1", Name: "H1"}))

	var resp ErrorResponse
	s.Equal(http.StatusBadRequest, s.call("PUT", "/api/helpers/me/availability", "H1", schema.RoleHelper,
		gin.H{"latitude": 91, "longitude": 10}, &resp))
	s.Equal(errorInvalidCoordinate.Code, resp.Code)

	s.Equal(http.StatusBadRequest, s.call("PUT", "/api/helpers/me/availability", "H1", schema.RoleHelper,
		gin.H{"latitude": 24.7}, &resp))
	s.Equal(errorInvalidCoordinate.Code, resp.Code)
}

func (s *ServerTestSuite) TestSaveHelperFailureIsNotFatal() {
	s.Require().NoError(s.dispatcher.RegisterHelper(schema.Helper{ID: "H1", Name: "H1"}))

	s.mongoMock.EXPECT().UpsertHelperLocation(gomock.Any(), "H1", gomock.Any()).Return(fmt.Errorf("mongo is down"))
	s.storeMock.EXPECT().SaveHelper(gomock.Any()).Return(fmt.Errorf("postgres is down"))

	s.Equal(http.StatusOK, s.call("PUT", "/api/helpers/me/availability", "H1", schema.RoleHelper,
		gin.H{"latitude": riyadh.Latitude, "longitude": riyadh.Longitude}, nil))
	s.True(s.dispatcher.Tracker().IsEligible("H1"))
}

func (s *ServerTestSuite) TestUpdateHelperLocation() {
	s.addHelper("H1", riyadh)
	moved := geo.Offset(riyadh, 300, 0)

	s.mongoMock.EXPECT().UpsertHelperLocation(gomock.Any(), "H1", gomock.Any()).Return(nil)
	s.storeMock.EXPECT().SaveHelper(gomock.Any()).Return(nil)

	var h schema.Helper
	s.Equal(http.StatusOK, s.call("PATCH", "/api/helpers/me/location", "H1", schema.RoleHelper,
		gin.H{"latitude": moved.Latitude, "longitude": moved.Longitude}, &h))
	s.Require().NotNil(h.Location)
	s.InDelta(moved.Latitude, h.Location.Latitude, 1e-9)
}

func (s *ServerTestSuite) TestGeoPositionMiddleware() {
	s.addHelper("H1", riyadh)
	moved := geo.Offset(riyadh, 800, 0)

	s.mongoMock.EXPECT().UpsertHelperLocation(gomock.Any(), "H1", gomock.Any()).Return(nil)

	s.Equal(http.StatusOK, s.call("GET", "/api/requests", "H1", schema.RoleHelper, nil, nil, withGeoPosition(moved)))

	h, err := s.dispatcher.GetHelper("H1")
	s.NoError(err)
	s.InDelta(moved.Latitude, h.Location.Latitude, 1e-5)

	// offline helpers and requesters are not tracked
	s.Require().NoError(s.dispatcher.SetUnavailable("H1"))
	s.Equal(http.StatusOK, s.call("GET", "/api/requests", "H1", schema.RoleHelper, nil, nil, withGeoPosition(riyadh)))
	s.Equal(http.StatusOK, s.call("GET", "/api/requests", "alice", schema.RoleRequester, nil, nil, withGeoPosition(riyadh)))
}
