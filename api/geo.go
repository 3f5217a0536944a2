package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/schema"
)

// parseGeoPosition will parse latitude and longitude from the geo-position string
func parseGeoPosition(geoPosition string) (float64, float64, error) {
	positions := strings.Split(geoPosition, ";")

	if len(positions) != 2 {
		return 0, 0, fmt.Errorf("invalid geo-position value")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(positions[0]), 64)
	if err != nil {
		return 0, 0, err
	}

	long, err := strconv.ParseFloat(strings.TrimSpace(positions[1]), 64)
	if err != nil {
		return 0, 0, err
	}

	loc := schema.Location{Latitude: lat, Longitude: long}
	if !loc.Valid() {
		return 0, 0, availability.ErrInvalidCoordinate
	}

	return lat, long, nil
}

// geoPosition returns the location sent in the Geo-Position header
func geoPosition(c *gin.Context) (schema.Location, bool) {
	gp := c.GetHeader("Geo-Position")
	if gp == "" {
		return schema.Location{}, false
	}

	lat, long, err := parseGeoPosition(gp)
	if err != nil {
		return schema.Location{}, false
	}
	return schema.Location{Latitude: lat, Longitude: long}, true
}

// updateGeoPositionMiddleware is a middleware to keep the location of
// available helpers fresh from every api request they make
func (s *Server) updateGeoPositionMiddleware(c *gin.Context) {
	gp := c.GetHeader("Geo-Position")
	helperID := c.GetString("requester")

	if gp != "" && helperID != "" && requesterRole(c).CanHelp() {
		if lat, long, err := parseGeoPosition(gp); err == nil {
			loc := schema.Location{Latitude: lat, Longitude: long}
			if err := s.trackHelperLocation(c.Request.Context(), helperID, loc); err != nil {
				c.Error(err)
			}
		} else {
			c.Error(err)
		}
	}
	c.Next()
}

// trackHelperLocation moves an available helper and records the position
// for the location provider. Helpers who are offline or unknown are skipped.
func (s *Server) trackHelperLocation(ctx context.Context, helperID string, loc schema.Location) error {
	h, err := s.dispatcher.GetHelper(helperID)
	if errors.Is(err, availability.ErrHelperNotFound) || (err == nil && !h.Available) {
		return nil
	} else if err != nil {
		return err
	}

	if err := s.dispatcher.UpdateLocation(helperID, loc); err != nil {
		return err
	}

	return s.mongoStore.UpsertHelperLocation(ctx, helperID, loc)
}
