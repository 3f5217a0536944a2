package dispatch

import (
	"fmt"

	"github.com/helpme-app/helpme-api/schema"
)

// ValidationError rejects malformed input before any state changes
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError reports a request status change the lifecycle forbids
type InvalidTransitionError struct {
	RequestID string
	From      schema.RequestStatus
	To        schema.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s cannot move from %s to %s", e.RequestID, e.From, e.To)
}

// NotAuthorizedError reports a user acting on a request they are not part of
type NotAuthorizedError struct {
	RequestID string
	UserID    string
	Action    string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s request %s", e.UserID, e.Action, e.RequestID)
}

// StaleOfferError is returned to a helper answering an offer that is no
// longer pending. It is the expected outcome for the loser of an accept race.
type StaleOfferError struct {
	RequestID string
	HelperID  string
}

func (e *StaleOfferError) Error() string {
	return fmt.Sprintf("offer of request %s to helper %s is no longer available", e.RequestID, e.HelperID)
}

type NotFoundError struct {
	RequestID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("request %s not found", e.RequestID)
}
