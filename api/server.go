package api

import (
	"context"
	"crypto/rsa"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/helpme-app/helpme-api/dispatch"
	"github.com/helpme-app/helpme-api/logmodule"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/store"
	"github.com/helpme-app/helpme-api/utils"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "gin")
}

// Server to run a http server instance
type Server struct {
	// Server instance
	server *http.Server

	// Matching and lifecycle engine
	dispatcher *dispatch.Dispatcher

	// Stores
	store      store.HelpCore
	mongoStore store.MongoStore

	// Triggers background workflows
	cadenceClient utils.WorkflowSignaler

	// JWT private key
	jwtPrivateKey *rsa.PrivateKey
}

// NewServer new instance of server
func NewServer(
	dispatcher *dispatch.Dispatcher,
	helpStore store.HelpCore,
	mongoStore store.MongoStore,
	cadenceClient utils.WorkflowSignaler,
	jwtKey *rsa.PrivateKey) *Server {
	return &Server{
		dispatcher:    dispatcher,
		store:         helpStore,
		mongoStore:    mongoStore,
		cadenceClient: cadenceClient,
		jwtPrivateKey: jwtKey,
	}
}

// Run to run the server
func (s *Server) Run(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.setupRouter(),
	}

	return s.server.ListenAndServe()
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         10 * time.Second,
	}))

	apiRoute := r.Group("/api")
	apiRoute.Use(logmodule.Ginrus("API"))
	apiRoute.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Client-Type", "Client-Version", "Geo-Position"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowAllOrigins:  true,
		MaxAge:           12 * time.Hour,
	}))
	apiRoute.GET("/information", s.information)

	// api route other than `/information` will apply the following middleware
	apiRoute.Use(s.clientVersionGateway())
	apiRoute.Use(s.authMiddleware())
	apiRoute.Use(s.updateGeoPositionMiddleware)

	requestRoute := apiRoute.Group("/requests")
	{
		requestRoute.POST("", s.requireRole(schema.UserRole.CanRequest), s.createRequest)
		requestRoute.GET("", s.listMyRequests)
		requestRoute.GET("/:requestID", s.getRequest)
		requestRoute.POST("/:requestID/cancel", s.cancelRequest)
		requestRoute.POST("/:requestID/complete", s.requireRole(schema.UserRole.CanHelp), s.completeRequest)
		requestRoute.POST("/:requestID/accept", s.requireRole(schema.UserRole.CanHelp), s.acceptRequest)
		requestRoute.POST("/:requestID/ignore", s.requireRole(schema.UserRole.CanHelp), s.ignoreRequest)
		requestRoute.GET("/:requestID/candidates", s.listCandidates)
		requestRoute.GET("/:requestID/offers", s.listOffers)
	}

	apiRoute.GET("/browse", s.browseRequests)
	apiRoute.GET("/map", s.requestMap)

	helperRoute := apiRoute.Group("/helpers")
	helperRoute.Use(s.requireRole(schema.UserRole.CanHelp))
	{
		helperRoute.POST("", s.registerHelper)
		helperRoute.GET("/me", s.helperDetail)
		helperRoute.GET("/me/offers", s.helperOffers)
		helperRoute.PUT("/me/availability", s.goAvailable)
		helperRoute.DELETE("/me/availability", s.goUnavailable)
		helperRoute.PATCH("/me/location", s.updateHelperLocation)
	}

	secretRoute := r.Group("/secret")
	secretRoute.Use(logmodule.Ginrus("Secret"))
	secretRoute.Use(s.apikeyAuthentication(viper.GetString("server.apikey.admin")))
	{
		secretRoute.POST("/tokens", s.issueToken)
		secretRoute.GET("/stats", s.stats)
		secretRoute.POST("/requests/:requestID/rematch", s.rematchRequest)
		secretRoute.POST("/sweep", s.triggerSweep)
	}

	r.GET("/healthz", s.healthz)

	return r
}

// Shutdown to shutdown the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// shouldInterupt sends error message and determine if it should interupt the current flow
func shouldInterupt(err error, c *gin.Context) bool {
	if err == nil {
		return false
	}

	log.Error(err)
	abortWithEncoding(c, http.StatusInternalServerError, errorInternalServer, err)
	return true
}

func (s *Server) healthz(c *gin.Context) {
	if err := s.store.Ping(); shouldInterupt(err, c) {
		return
	}

	if err := s.mongoStore.Ping(); shouldInterupt(err, c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"version": viper.GetString("server.version"),
	})
}

func (s *Server) information(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"information": map[string]interface{}{
			"server": map[string]interface{}{
				"version": viper.GetString("server.version"),
			},
			"android":       viper.GetStringMap("clients.android"),
			"ios":           viper.GetStringMap("clients.ios"),
			"web":           viper.GetStringMap("clients.web"),
			"categories":    schema.Categories,
			"offer_timeout": s.dispatcher.Config().OfferTimeout.Seconds(),
		},
	})
}

func responseWithEncoding(c *gin.Context, code int, obj ErrorResponse) {
	acceptEncoding := c.GetHeader("Accept-Encoding")
	switch acceptEncoding {
	default:
		c.JSON(code, obj)
	}
}

func abortWithEncoding(c *gin.Context, code int, obj ErrorResponse, errors ...error) {
	for _, err := range errors {
		c.Error(err)
	}
	responseWithEncoding(c, code, obj)
	c.Abort()
}
