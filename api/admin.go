package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpme-app/helpme-api/utils"
)

// stats returns the live counters of the dispatcher next to the counters
// of every request ever stored
func (s *Server) stats(c *gin.Context) {
	stored, err := s.store.RequestStats()
	if shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"live":   s.dispatcher.Stats(),
		"stored": stored,
	})
}

// rematchRequest restarts offering of an active request that ran out of
// helpers
func (s *Server) rematchRequest(c *gin.Context) {
	if err := s.dispatcher.Rematch(c.Param("requestID")); err != nil {
		abortWithDispatchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}

// triggerSweep asks the sweeper workflow to cancel stale requests now
func (s *Server) triggerSweep(c *gin.Context) {
	if s.cadenceClient == nil {
		abortWithEncoding(c, http.StatusServiceUnavailable, errorInternalServer)
		return
	}

	if err := utils.TriggerSweep(s.cadenceClient, c.Request.Context()); shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": "OK"})
}
