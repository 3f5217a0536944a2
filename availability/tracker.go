package availability

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/helpme-app/helpme-api/consts"
	"github.com/helpme-app/helpme-api/schema"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "availability")
}

var (
	ErrHelperNotFound    = fmt.Errorf("helper not found")
	ErrHelperExists      = fmt.Errorf("helper has been registered")
	ErrInvalidHelperID   = fmt.Errorf("invalid helper id")
	ErrInvalidCoordinate = fmt.Errorf("invalid coordinate")
)

// LocationProvider supplies the latest known coordinates of helpers
type LocationProvider interface {
	HelperLocations(ctx context.Context, helperIDs []string) (map[string]schema.Location, error)
}

type helperState struct {
	helper schema.Helper

	// request holding a pending offer to this helper
	pendingRequest string

	// request this helper has accepted and not yet finished
	assignedRequest string
}

func (s *helperState) eligible() bool {
	return s.helper.Available &&
		s.helper.Location != nil &&
		s.pendingRequest == "" &&
		s.assignedRequest == ""
}

// Tracker keeps the availability, location and offer reservations of every
// registered helper
type Tracker struct {
	mu       sync.RWMutex
	helpers  map[string]*helperState
	provider LocationProvider
}

func NewTracker(provider LocationProvider) *Tracker {
	return &Tracker{
		helpers:  make(map[string]*helperState),
		provider: provider,
	}
}

// Register adds a helper. A location is dropped when the helper is not available.
func (t *Tracker) Register(h schema.Helper) error {
	if h.ID == "" {
		return ErrInvalidHelperID
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.helpers[h.ID]; ok {
		return ErrHelperExists
	}

	h = h.Clone()
	if !h.Available {
		h.Location = nil
	}
	t.helpers[h.ID] = &helperState{helper: h}
	return nil
}

func (t *Tracker) Get(helperID string) (schema.Helper, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.helpers[helperID]
	if !ok {
		return schema.Helper{}, ErrHelperNotFound
	}
	return s.helper.Clone(), nil
}

// SetAvailable marks a helper active at the given location
func (t *Tracker) SetAvailable(helperID string, loc schema.Location) error {
	if !loc.Valid() {
		return ErrInvalidCoordinate
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.helpers[helperID]
	if !ok {
		return ErrHelperNotFound
	}

	s.helper.Available = true
	s.helper.Location = &loc

	log.WithField("helper", helperID).Debug("helper is available")
	return nil
}

// SetUnavailable hides a helper from matching. A pending offer stays
// reserved until the coordinator resolves it.
func (t *Tracker) SetUnavailable(helperID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.helpers[helperID]
	if !ok {
		return ErrHelperNotFound
	}

	s.helper.Available = false
	s.helper.Location = nil

	log.WithField("helper", helperID).Debug("helper is unavailable")
	return nil
}

// UpdateLocation moves an available helper. It silently does nothing
// while the helper is unavailable.
func (t *Tracker) UpdateLocation(helperID string, loc schema.Location) error {
	if !loc.Valid() {
		return ErrInvalidCoordinate
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.helpers[helperID]
	if !ok {
		return ErrHelperNotFound
	}

	if !s.helper.Available {
		return nil
	}

	s.helper.Location = &loc
	return nil
}

// IsEligible reports whether a helper is available, located and holds
// neither a pending offer nor an accepted request
func (t *Tracker) IsEligible(helperID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.helpers[helperID]
	return ok && s.eligible()
}

// IsBusy reports whether a helper is working on an accepted request
func (t *Tracker) IsBusy(helperID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.helpers[helperID]
	return ok && s.assignedRequest != ""
}

// Available returns a snapshot of every available helper ordered by id
func (t *Tracker) Available() []schema.Helper {
	t.mu.RLock()
	defer t.mu.RUnlock()

	helpers := make([]schema.Helper, 0, len(t.helpers))
	for _, s := range t.helpers {
		if s.helper.Available {
			helpers = append(helpers, s.helper.Clone())
		}
	}

	sort.Slice(helpers, func(i, j int) bool {
		return helpers[i].ID < helpers[j].ID
	})
	return helpers
}

// Counts returns the number of available helpers and how many of them are busy
func (t *Tracker) Counts() (available, busy int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, s := range t.helpers {
		if s.helper.Available {
			available++
		}
		if s.assignedRequest != "" {
			busy++
		}
	}
	return
}

// Reserve marks an eligible helper as holding a pending offer for a request.
// It fails when the helper is not eligible, so two requests never hold a
// pending offer to the same helper.
func (t *Tracker) Reserve(helperID, requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.helpers[helperID]
	if !ok || !s.eligible() {
		return false
	}

	s.pendingRequest = requestID
	return true
}

// Release drops the pending offer reservation held for a request
func (t *Tracker) Release(helperID, requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.helpers[helperID]; ok && s.pendingRequest == requestID {
		s.pendingRequest = ""
	}
}

// Assign turns the reservation of a request into an accepted assignment.
// The helper stays active but is no longer eligible.
func (t *Tracker) Assign(helperID, requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.helpers[helperID]; ok {
		if s.pendingRequest == requestID {
			s.pendingRequest = ""
		}
		s.assignedRequest = requestID
	}
}

// Free ends the assignment of a helper to a request
func (t *Tracker) Free(helperID, requestID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.helpers[helperID]; ok && s.assignedRequest == requestID {
		s.assignedRequest = ""
	}
}

// RecordCompletion credits a finished help to a helper and awards badges
func (t *Tracker) RecordCompletion(helperID string) (schema.Helper, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.helpers[helperID]
	if !ok {
		return schema.Helper{}, ErrHelperNotFound
	}

	s.helper.TotalHelps++
	s.helper.Points += consts.PointsPerHelp
	for _, b := range consts.BadgeThresholds {
		if s.helper.TotalHelps >= b.Helps && !s.helper.HasBadge(b.Badge) {
			s.helper.Badges = append(s.helper.Badges, b.Badge)
		}
	}

	return s.helper.Clone(), nil
}

// Refresh pulls coordinates of available helpers from the location provider
func (t *Tracker) Refresh(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}

	ids := make([]string, 0)
	for _, h := range t.Available() {
		ids = append(ids, h.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	locations, err := t.provider.HelperLocations(ctx, ids)
	if err != nil {
		return err
	}

	updated := 0
	for id, loc := range locations {
		if err := t.UpdateLocation(id, loc); err != nil {
			log.WithField("helper", id).WithError(err).Warn("skip location refresh")
			continue
		}
		updated++
	}

	log.Debugf("refreshed %d of %d helper locations", updated, len(ids))
	return nil
}
