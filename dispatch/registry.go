package dispatch

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/utils"
)

// Registry owns help requests and their lifecycle. Stored records are never
// modified in place: every transition stores a new copy, so readers only
// need the map lock while writers hold the per-request lock.
type Registry struct {
	mu       sync.RWMutex
	requests map[string]*schema.HelpRequest

	locks    *utils.KeyedMutex
	clock    clock.Clock
	resolver geo.AddressResolver
	events   *emitter
	newID    func() string
}

func newRegistry(locks *utils.KeyedMutex, clk clock.Clock, resolver geo.AddressResolver, events *emitter, newID func() string) *Registry {
	return &Registry{
		requests: make(map[string]*schema.HelpRequest),
		locks:    locks,
		clock:    clk,
		resolver: resolver,
		events:   events,
		newID:    newID,
	}
}

func validateRequest(requesterID string, category schema.Category, title, description string, location schema.Location) error {
	if requesterID == "" {
		return &ValidationError{Field: "requester", Reason: "must not be empty"}
	}
	if title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !category.Valid() {
		return &ValidationError{Field: "category", Reason: "unknown category " + string(category)}
	}
	if !location.Valid() {
		return &ValidationError{Field: "location", Reason: "coordinate out of range"}
	}
	return nil
}

// Create validates and stores a new active request. An empty address is
// filled by the address resolver when one is configured.
func (r *Registry) Create(ctx context.Context, requesterID string, category schema.Category, title, description string, location schema.Location, images ...string) (schema.HelpRequest, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	if err := validateRequest(requesterID, category, title, description, location); err != nil {
		return schema.HelpRequest{}, err
	}

	if location.Address == "" && r.resolver != nil {
		if resolved, err := r.resolver.ResolveAddress(ctx, location); err != nil {
			log.WithError(err).Warn("resolve request address")
		} else {
			location = resolved
		}
	}

	req := &schema.HelpRequest{
		ID:          r.newID(),
		RequesterID: requesterID,
		Category:    category,
		Title:       title,
		Description: description,
		Location:    location,
		Status:      schema.RequestActive,
		CreatedAt:   r.clock.Now(),
	}
	if len(images) > 0 {
		req.Images = append(schema.StringArray{}, images...)
	}

	unlock := r.locks.Lock(req.ID)
	defer unlock()

	r.put(req)
	r.emit(schema.EventRequestCreated, req, "")

	log.WithField("request", req.ID).WithField("category", req.Category).Info("help request created")
	return req.Clone(), nil
}

// Cancel moves an active or accepted request to cancelled on behalf of
// its requester or assigned helper
func (r *Registry) Cancel(requestID, byUserID string) (schema.HelpRequest, error) {
	unlock := r.locks.Lock(requestID)
	defer unlock()

	cur, err := r.load(requestID)
	if err != nil {
		return schema.HelpRequest{}, err
	}

	if !cur.Status.CanTransitionTo(schema.RequestCancelled) {
		return schema.HelpRequest{}, &InvalidTransitionError{RequestID: requestID, From: cur.Status, To: schema.RequestCancelled}
	}

	if byUserID == "" || (byUserID != cur.RequesterID && byUserID != cur.HelperID) {
		return schema.HelpRequest{}, &NotAuthorizedError{RequestID: requestID, UserID: byUserID, Action: "cancel"}
	}

	return r.cancelLocked(cur, byUserID), nil
}

// CancelStale cancels an active request created before the cutoff on behalf
// of its requester. It reports whether the request was cancelled.
func (r *Registry) CancelStale(requestID string, createdBefore time.Time) (bool, error) {
	unlock := r.locks.Lock(requestID)
	defer unlock()

	cur, err := r.load(requestID)
	if err != nil {
		return false, err
	}

	if cur.Status != schema.RequestActive || cur.CreatedAt.After(createdBefore) {
		return false, nil
	}

	r.cancelLocked(cur, cur.RequesterID)
	return true, nil
}

func (r *Registry) cancelLocked(cur *schema.HelpRequest, byUserID string) schema.HelpRequest {
	now := r.clock.Now()
	next := cur.Clone()
	next.Status = schema.RequestCancelled
	next.HelperID = ""
	next.CancelledAt = &now
	next.CancelledBy = byUserID

	r.put(&next)
	r.emit(schema.EventRequestCancelled, &next, cur.HelperID)

	log.WithField("request", next.ID).WithField("by", byUserID).Info("help request cancelled")
	return next.Clone()
}

// Complete moves an accepted request to completed. Only the assigned
// helper may complete it.
func (r *Registry) Complete(requestID, byHelperID string) (schema.HelpRequest, error) {
	unlock := r.locks.Lock(requestID)
	defer unlock()

	cur, err := r.load(requestID)
	if err != nil {
		return schema.HelpRequest{}, err
	}

	if !cur.Status.CanTransitionTo(schema.RequestCompleted) {
		return schema.HelpRequest{}, &InvalidTransitionError{RequestID: requestID, From: cur.Status, To: schema.RequestCompleted}
	}

	if byHelperID != cur.HelperID {
		return schema.HelpRequest{}, &NotAuthorizedError{RequestID: requestID, UserID: byHelperID, Action: "complete"}
	}

	now := r.clock.Now()
	if cur.AcceptedAt != nil && now.Before(*cur.AcceptedAt) {
		now = *cur.AcceptedAt
	}

	next := cur.Clone()
	next.Status = schema.RequestCompleted
	next.CompletedAt = &now

	r.put(&next)
	r.emit(schema.EventRequestCompleted, &next, next.HelperID)

	log.WithField("request", requestID).WithField("helper", byHelperID).Info("help request completed")
	return next.Clone(), nil
}

// acceptLocked assigns a helper to an active request. The caller holds the
// request lock.
func (r *Registry) acceptLocked(requestID, helperID string) (schema.HelpRequest, error) {
	cur, err := r.load(requestID)
	if err != nil {
		return schema.HelpRequest{}, err
	}

	if !cur.Status.CanTransitionTo(schema.RequestAccepted) {
		return schema.HelpRequest{}, &InvalidTransitionError{RequestID: requestID, From: cur.Status, To: schema.RequestAccepted}
	}

	now := r.clock.Now()
	next := cur.Clone()
	next.Status = schema.RequestAccepted
	next.HelperID = helperID
	next.AcceptedAt = &now

	r.put(&next)
	r.emit(schema.EventRequestAccepted, &next, helperID)

	log.WithField("request", requestID).WithField("helper", helperID).Info("help request accepted")
	return next.Clone(), nil
}

// restore stores a persisted request without emitting events
func (r *Registry) restore(req schema.HelpRequest) {
	unlock := r.locks.Lock(req.ID)
	defer unlock()

	stored := req.Clone()
	r.put(&stored)
}

func (r *Registry) emit(t schema.EventType, req *schema.HelpRequest, helperID string) {
	snapshot := req.Clone()
	r.events.emit(schema.Event{
		Type:      t,
		RequestID: req.ID,
		HelperID:  helperID,
		Status:    req.Status,
		At:        r.clock.Now(),
		Request:   &snapshot,
	})
}

func (r *Registry) put(req *schema.HelpRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = req
}

func (r *Registry) load(requestID string) (*schema.HelpRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[requestID]
	if !ok {
		return nil, &NotFoundError{RequestID: requestID}
	}
	return req, nil
}

// Get returns a copy of a request
func (r *Registry) Get(requestID string) (schema.HelpRequest, error) {
	req, err := r.load(requestID)
	if err != nil {
		return schema.HelpRequest{}, err
	}
	return req.Clone(), nil
}

// List returns requests matching the filter, oldest first
func (r *Registry) List(filter func(*schema.HelpRequest) bool) []schema.HelpRequest {
	r.mu.RLock()
	result := make([]schema.HelpRequest, 0)
	for _, req := range r.requests {
		if filter == nil || filter(req) {
			result = append(result, req.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// ListActive returns every request still waiting for a helper
func (r *Registry) ListActive() []schema.HelpRequest {
	return r.List(func(req *schema.HelpRequest) bool {
		return req.Status == schema.RequestActive
	})
}

// Stats counts requests by status
func (r *Registry) Stats() schema.RequestStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats schema.RequestStats
	for _, req := range r.requests {
		stats.Add(req.Status, 1)
	}
	return stats
}
