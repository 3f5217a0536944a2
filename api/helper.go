package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/schema"
)

// registerHelper makes the user known to the matching engine. A new
// helper starts unavailable.
func (s *Server) registerHelper(c *gin.Context) {
	helperID := c.GetString("requester")

	var params struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.BindJSON(&params); err != nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
		return
	}

	if _, err := s.dispatcher.GetHelper(helperID); err == nil {
		abortWithEncoding(c, http.StatusConflict, errorHelperExists)
		return
	}

	h := schema.Helper{
		ID:     helperID,
		Name:   params.Name,
		Badges: schema.StringArray{},
	}
	if err := s.dispatcher.RegisterHelper(h); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	h, err := s.dispatcher.GetHelper(helperID)
	if shouldInterupt(err, c) {
		return
	}

	if err := s.store.SaveHelper(h); shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, h)
}

func (s *Server) helperDetail(c *gin.Context) {
	h, err := s.dispatcher.GetHelper(c.GetString("requester"))
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, h)
}

// helperOffers returns the offers waiting for the helper's answer
func (s *Server) helperOffers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": s.dispatcher.PendingOffersFor(c.GetString("requester"))})
}

func bindLocation(c *gin.Context) (schema.Location, bool) {
	var params struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Address   string   `json:"address"`
	}

	if err := c.ShouldBindJSON(&params); err != nil {
		if loc, ok := geoPosition(c); ok {
			return loc, true
		}
		abortWithEncoding(c, http.StatusBadRequest, errorUnknownLocation, err)
		return schema.Location{}, false
	}

	if params.Latitude == nil || params.Longitude == nil {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidCoordinate)
		return schema.Location{}, false
	}

	return schema.Location{
		Latitude:  *params.Latitude,
		Longitude: *params.Longitude,
		Address:   params.Address,
	}, true
}

// goAvailable lets the helper receive offers at the given location
func (s *Server) goAvailable(c *gin.Context) {
	helperID := c.GetString("requester")

	loc, ok := bindLocation(c)
	if !ok {
		return
	}

	if err := s.dispatcher.SetAvailable(helperID, loc); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	if err := s.mongoStore.UpsertHelperLocation(c.Request.Context(), helperID, loc); err != nil {
		c.Error(err)
	}

	s.respondHelper(c, helperID)
}

func (s *Server) goUnavailable(c *gin.Context) {
	helperID := c.GetString("requester")

	if err := s.dispatcher.SetUnavailable(helperID); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	s.respondHelper(c, helperID)
}

func (s *Server) updateHelperLocation(c *gin.Context) {
	helperID := c.GetString("requester")

	loc, ok := bindLocation(c)
	if !ok {
		return
	}

	if !loc.Valid() {
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidCoordinate, availability.ErrInvalidCoordinate)
		return
	}

	if err := s.trackHelperLocation(c.Request.Context(), helperID, loc); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	s.respondHelper(c, helperID)
}

// respondHelper saves the helper snapshot and returns it. A failed save is
// logged only, the tracker stays the source of truth.
func (s *Server) respondHelper(c *gin.Context, helperID string) {
	h, err := s.dispatcher.GetHelper(helperID)
	if err != nil {
		abortWithDispatchError(c, err)
		return
	}

	if err := s.store.SaveHelper(h); err != nil {
		c.Error(err)
	}

	c.JSON(http.StatusOK, h)
}
