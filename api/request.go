package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/helpme-app/helpme-api/consts"
	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
)

// createRequest is the API for asking help from helpers nearby. The request
// location falls back to the Geo-Position header.
func (s *Server) createRequest(c *gin.Context) {
	requester := c.GetString("requester")

	var params struct {
		Category    schema.Category  `json:"category"`
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Images      []string         `json:"images"`
		Location    *schema.Location `json:"location"`
	}

	if err := c.BindJSON(&params); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorCannotParseRequest, err)
		return
	}

	var loc schema.Location
	if params.Location != nil {
		loc = *params.Location
	} else if gp, ok := geoPosition(c); ok {
		loc = gp
	} else {
		abortWithEncoding(c, http.StatusBadRequest, errorUnknownLocation)
		return
	}

	req, err := s.dispatcher.CreateRequest(c.Request.Context(), requester, params.Category,
		params.Title, params.Description, loc, params.Images...)
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// listMyRequests returns the requests the user created or helped with
func (s *Server) listMyRequests(c *gin.Context) {
	requester := c.GetString("requester")
	c.JSON(http.StatusOK, gin.H{"result": s.dispatcher.ListRequests(requester)})
}

func (s *Server) getRequest(c *gin.Context) {
	req, err := s.dispatcher.GetRequest(c.Param("requestID"))
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	requester := c.GetString("requester")
	role := requesterRole(c)
	visible := role == schema.RoleAdmin ||
		req.RequesterID == requester ||
		req.HelperID == requester ||
		(req.Status == schema.RequestActive && role.CanHelp())
	if !visible {
		abortWithEncoding(c, http.StatusForbidden, errorNotPartOfRequest)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (s *Server) cancelRequest(c *gin.Context) {
	req, err := s.dispatcher.CancelRequest(c.Param("requestID"), c.GetString("requester"))
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (s *Server) completeRequest(c *gin.Context) {
	req, err := s.dispatcher.CompleteRequest(c.Param("requestID"), c.GetString("requester"))
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// acceptRequest answers the pending offer of the helper. Losing an accept
// race is reported as 410.
func (s *Server) acceptRequest(c *gin.Context) {
	req, err := s.dispatcher.Accept(c.Param("requestID"), c.GetString("requester"))
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

func (s *Server) ignoreRequest(c *gin.Context) {
	if err := s.dispatcher.Ignore(c.Param("requestID"), c.GetString("requester")); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}

// ownRequest aborts unless the user created the request or is an admin
func (s *Server) ownRequest(c *gin.Context) (schema.HelpRequest, bool) {
	req, err := s.dispatcher.GetRequest(c.Param("requestID"))
	if err != nil {
		abortWithDispatchError(c, err)
		return req, false
	}

	if req.RequesterID != c.GetString("requester") && requesterRole(c) != schema.RoleAdmin {
		abortWithEncoding(c, http.StatusForbidden, errorNotPartOfRequest)
		return req, false
	}
	return req, true
}

func (s *Server) listCandidates(c *gin.Context) {
	req, ok := s.ownRequest(c)
	if !ok {
		return
	}

	candidates, err := s.dispatcher.ListCandidates(req.ID)
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": candidates})
}

func (s *Server) listOffers(c *gin.Context) {
	req, ok := s.ownRequest(c)
	if !ok {
		return
	}

	offers, err := s.dispatcher.ListOffers(req.ID)
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": offers})
}

type browseItem struct {
	schema.HelpRequest
	Distance *float64 `json:"distance,omitempty"`
}

// browseRequests lists active requests, latest first or nearest first
func (s *Server) browseRequests(c *gin.Context) {
	requests := s.dispatcher.ListActiveRequests()
	items := make([]browseItem, 0, len(requests))

	switch c.DefaultQuery("filter", "latest") {
	case "latest":
		for i := len(requests) - 1; i >= 0; i-- {
			items = append(items, browseItem{HelpRequest: requests[i]})
		}
	case "nearest":
		loc, ok := s.requesterLocation(c)
		if !ok {
			abortWithEncoding(c, http.StatusBadRequest, errorUnknownLocation)
			return
		}

		for _, r := range requests {
			d := geo.Distance(loc, r.Location)
			items = append(items, browseItem{HelpRequest: r, Distance: &d})
		}
		sort.SliceStable(items, func(i, j int) bool {
			return *items[i].Distance < *items[j].Distance
		})
	default:
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": items})
}

type mapHelper struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Rating   float64         `json:"rating"`
	Location schema.Location `json:"location"`
}

// requestMap returns active requests and available helpers around the user
func (s *Server) requestMap(c *gin.Context) {
	loc, ok := s.requesterLocation(c)
	if !ok {
		abortWithEncoding(c, http.StatusBadRequest, errorUnknownLocation)
		return
	}

	requests := make([]schema.HelpRequest, 0)
	for _, r := range s.dispatcher.ListActiveRequests() {
		if geo.Distance(loc, r.Location) <= consts.CohortDistanceRange {
			requests = append(requests, r)
		}
	}

	ids, err := s.mongoStore.NearestHelpers(c.Request.Context(), consts.CohortDistanceRange, loc)
	if shouldInterupt(err, c) {
		return
	}

	helpers := make([]mapHelper, 0, len(ids))
	for _, id := range ids {
		h, err := s.dispatcher.GetHelper(id)
		if err != nil || !h.Available || h.Location == nil {
			continue
		}
		helpers = append(helpers, mapHelper{
			ID:       h.ID,
			Name:     h.Name,
			Rating:   h.Rating,
			Location: *h.Location,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"helpers":  helpers,
	})
}

// requesterLocation prefers the Geo-Position header and falls back to the
// tracked location of an available helper
func (s *Server) requesterLocation(c *gin.Context) (schema.Location, bool) {
	if loc, ok := geoPosition(c); ok {
		return loc, true
	}

	h, err := s.dispatcher.GetHelper(c.GetString("requester"))
	if err != nil || h.Location == nil {
		return schema.Location{}, false
	}
	return *h.Location, true
}
