package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/dispatch"
)

var (
	errorMessageMap = map[int64]string{
		999:  "internal server error",
		1001: "invalid authorization format",
		1003: "invalid token",
		1004: "permission denied",

		1006: "invalid value of client version",
		1007: "API for this client version has been discontinued",

		1010: "invalid parameters",
		1011: "cannot parse request",

		1200: "request not found",
		1201: "request cannot change to the asked status",
		1202: "user is not part of the request",
		1203: "offer is no longer available",
		1204: "invalid request",

		1300: availability.ErrHelperNotFound.Error(),
		1301: availability.ErrHelperExists.Error(),
		1302: availability.ErrInvalidCoordinate.Error(),
		1303: "unknown location",
	}

	errorInternalServer             = errorJSON(999)
	errorInvalidAuthorizationFormat = errorJSON(1001)
	errorInvalidToken               = errorJSON(1003)
	errorPermissionDenied           = errorJSON(1004)
	errorInvalidClientVersion       = errorJSON(1006)
	errorUnsupportedClientVersion   = errorJSON(1007)

	errorInvalidParameters  = errorJSON(1010)
	errorCannotParseRequest = errorJSON(1011)

	errorRequestNotExist    = errorJSON(1200)
	errorInvalidTransition  = errorJSON(1201)
	errorNotPartOfRequest   = errorJSON(1202)
	errorOfferNotAvailable  = errorJSON(1203)
	errorInvalidHelpRequest = errorJSON(1204)

	errorHelperNotFound    = errorJSON(1300)
	errorHelperExists      = errorJSON(1301)
	errorInvalidCoordinate = errorJSON(1302)
	errorUnknownLocation   = errorJSON(1303)
)

type ErrorResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

// errorJSON converts an error code to a standardized error object
func errorJSON(code int64) ErrorResponse {
	var message string
	if msg, ok := errorMessageMap[code]; ok {
		message = msg
	} else {
		message = "unknown"
	}

	return ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// abortWithDispatchError maps errors of the dispatcher and the tracker to
// a response. Unknown errors are reported as internal errors.
func abortWithDispatchError(c *gin.Context, err error) {
	var (
		validation *dispatch.ValidationError
		transition *dispatch.InvalidTransitionError
		notAuth    *dispatch.NotAuthorizedError
		stale      *dispatch.StaleOfferError
		notFound   *dispatch.NotFoundError
	)

	switch {
	case errors.As(err, &validation):
		abortWithEncoding(c, http.StatusBadRequest, ErrorResponse{
			Code:    errorInvalidHelpRequest.Code,
			Message: validation.Error(),
		}, err)
	case errors.As(err, &notAuth):
		abortWithEncoding(c, http.StatusForbidden, errorNotPartOfRequest, err)
	case errors.As(err, &notFound):
		abortWithEncoding(c, http.StatusNotFound, errorRequestNotExist, err)
	case errors.As(err, &transition):
		abortWithEncoding(c, http.StatusConflict, errorInvalidTransition, err)
	case errors.As(err, &stale):
		abortWithEncoding(c, http.StatusGone, errorOfferNotAvailable, err)
	case errors.Is(err, availability.ErrHelperNotFound):
		abortWithEncoding(c, http.StatusNotFound, errorHelperNotFound, err)
	case errors.Is(err, availability.ErrHelperExists):
		abortWithEncoding(c, http.StatusConflict, errorHelperExists, err)
	case errors.Is(err, availability.ErrInvalidCoordinate):
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidCoordinate, err)
	case errors.Is(err, availability.ErrInvalidHelperID):
		abortWithEncoding(c, http.StatusBadRequest, errorInvalidParameters, err)
	default:
		shouldInterupt(err, c)
	}
}
