package dispatch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/getsentry/sentry-go"

	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/consts"
	"github.com/helpme-app/helpme-api/matching"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/utils"
)

type Mode string

const (
	// ModeSerial keeps at most one pending offer per request
	ModeSerial Mode = "serial"
	// ModeBroadcast offers a request to several helpers at once. The first
	// accept wins and every sibling offer is ignored.
	ModeBroadcast Mode = "broadcast"
)

type Config struct {
	OfferTimeout  time.Duration
	Backoff       time.Duration
	MaxRetries    int
	Mode          Mode
	BroadcastSize int
	MaxCandidates int
	MaxDistance   float64
}

func DefaultConfig() Config {
	return Config{
		OfferTimeout:  15 * time.Second,
		Backoff:       30 * time.Second,
		MaxRetries:    5,
		Mode:          ModeSerial,
		BroadcastSize: 3,
		MaxDistance:   consts.CohortDistanceRange,
	}
}

// Validate rejects settings the coordinator cannot run with
func (c Config) Validate() error {
	switch {
	case c.OfferTimeout <= 0:
		return &ValidationError{Field: "offer_timeout", Reason: "must be positive"}
	case c.Backoff <= 0:
		return &ValidationError{Field: "backoff", Reason: "must be positive"}
	case c.MaxRetries < 0:
		return &ValidationError{Field: "max_retries", Reason: "must not be negative"}
	case c.Mode != ModeSerial && c.Mode != ModeBroadcast:
		return &ValidationError{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", c.Mode)}
	case c.Mode == ModeBroadcast && c.BroadcastSize < 1:
		return &ValidationError{Field: "broadcast_size", Reason: "must be at least 1"}
	case c.MaxCandidates < 0:
		return &ValidationError{Field: "max_candidates", Reason: "must not be negative"}
	case c.MaxDistance < 0:
		return &ValidationError{Field: "max_distance", Reason: "must not be negative"}
	}
	return nil
}

func (c Config) capacity() int {
	if c.Mode == ModeBroadcast && c.BroadcastSize > 1 {
		return c.BroadcastSize
	}
	return 1
}

// Phase is the offering state of a request
type Phase string

const (
	PhaseUnoffered Phase = "unoffered"
	PhaseOffering  Phase = "offering"
	PhaseExhausted Phase = "exhausted"
	PhaseAccepted  Phase = "accepted"
	PhaseClosed    Phase = "closed"
)

type pendingOffer struct {
	offer *schema.Offer
	timer *clock.Timer
}

type round struct {
	phase   Phase
	history []*schema.Offer
	pending map[string]*pendingOffer

	// helpers that ignored the request are never asked again
	declined map[string]bool
	// helpers whose offer expired wait for the next backoff round
	passed map[string]bool

	retries    int
	rematch    *clock.Timer
	generation int
}

func newRound() *round {
	return &round{
		phase:    PhaseUnoffered,
		pending:  make(map[string]*pendingOffer),
		declined: make(map[string]bool),
		passed:   make(map[string]bool),
	}
}

func (rd *round) excluded() []string {
	ids := make([]string, 0, len(rd.declined)+len(rd.passed)+len(rd.pending))
	for id := range rd.declined {
		ids = append(ids, id)
	}
	for id := range rd.passed {
		ids = append(ids, id)
	}
	for id := range rd.pending {
		ids = append(ids, id)
	}
	return ids
}

func (rd *round) stopRematch() {
	if rd.rematch != nil {
		rd.rematch.Stop()
		rd.rematch = nil
	}
	rd.generation++
}

// Coordinator sequences offers of requests to helpers. Every method that
// touches a round runs under the lock of its request.
type Coordinator struct {
	mu     sync.Mutex
	rounds map[string]*round

	cfg      Config
	locks    *utils.KeyedMutex
	clock    clock.Clock
	registry *Registry
	tracker  *availability.Tracker
	engine   *matching.Engine
	events   *emitter
	newID    func() string
}

func newCoordinator(cfg Config, locks *utils.KeyedMutex, clk clock.Clock, registry *Registry, tracker *availability.Tracker, engine *matching.Engine, events *emitter, newID func() string) *Coordinator {
	c := &Coordinator{
		rounds:   make(map[string]*round),
		cfg:      cfg,
		locks:    locks,
		clock:    clk,
		registry: registry,
		tracker:  tracker,
		engine:   engine,
		events:   events,
		newID:    newID,
	}
	events.subscribe(c.onRequestEvent)
	return c
}

func (c *Coordinator) round(requestID string) *round {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rounds[requestID]
}

func (c *Coordinator) openRound(requestID string) *round {
	c.mu.Lock()
	defer c.mu.Unlock()

	rd, ok := c.rounds[requestID]
	if !ok {
		rd = newRound()
		c.rounds[requestID] = rd
	}
	return rd
}

// onRequestEvent reacts to request transitions. It runs inside the critical
// section of the transition.
func (c *Coordinator) onRequestEvent(event schema.Event) {
	switch event.Type {
	case schema.EventRequestCreated:
		c.offerNextLocked(event.RequestID, c.openRound(event.RequestID))

	case schema.EventRequestCancelled:
		if rd := c.round(event.RequestID); rd != nil {
			c.withdrawLocked(event.RequestID, rd)
			rd.phase = PhaseClosed
		}
		if event.HelperID != "" {
			c.tracker.Free(event.HelperID, event.RequestID)
		}

	case schema.EventRequestCompleted:
		if rd := c.round(event.RequestID); rd != nil {
			rd.phase = PhaseClosed
		}
		c.tracker.Free(event.HelperID, event.RequestID)

		helper, err := c.tracker.RecordCompletion(event.HelperID)
		if err != nil {
			log.WithError(err).WithField("helper", event.HelperID).Warn("credit completed help")
			return
		}
		c.events.emit(schema.Event{
			Type:      schema.EventHelperCredited,
			RequestID: event.RequestID,
			HelperID:  event.HelperID,
			Status:    event.Status,
			At:        c.clock.Now(),
			Helper:    &helper,
		})
	}
}

// Accept lets a helper take a request. Only the first accept of a pending,
// unexpired offer succeeds. Everyone else gets a StaleOfferError.
func (c *Coordinator) Accept(requestID, helperID string) (schema.HelpRequest, error) {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	if _, err := c.registry.load(requestID); err != nil {
		return schema.HelpRequest{}, err
	}

	stale := &StaleOfferError{RequestID: requestID, HelperID: helperID}

	rd := c.round(requestID)
	if rd == nil {
		return schema.HelpRequest{}, stale
	}

	p, ok := rd.pending[helperID]
	if !ok {
		return schema.HelpRequest{}, stale
	}

	if p.offer.IsExpiredAt(c.clock.Now()) {
		c.expireLocked(requestID, rd, p)
		return schema.HelpRequest{}, stale
	}

	req, err := c.registry.acceptLocked(requestID, helperID)
	if err != nil {
		log.WithError(err).WithField("request", requestID).Error("accept pending offer")
		return schema.HelpRequest{}, stale
	}

	c.resolveLocked(rd, p, schema.OfferAccepted)
	c.tracker.Assign(helperID, requestID)

	c.withdrawLocked(requestID, rd)
	rd.stopRematch()
	rd.phase = PhaseAccepted

	return req, nil
}

// Ignore declines an offer. The helper is not asked about this request
// again and the next candidate receives an offer.
func (c *Coordinator) Ignore(requestID, helperID string) error {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	if _, err := c.registry.load(requestID); err != nil {
		return err
	}

	stale := &StaleOfferError{RequestID: requestID, HelperID: helperID}

	rd := c.round(requestID)
	if rd == nil {
		return stale
	}

	p, ok := rd.pending[helperID]
	if !ok {
		return stale
	}

	if p.offer.IsExpiredAt(c.clock.Now()) {
		c.expireLocked(requestID, rd, p)
		return stale
	}

	c.resolveLocked(rd, p, schema.OfferIgnored)
	rd.declined[helperID] = true
	c.tracker.Release(helperID, requestID)
	c.emitOffer(schema.EventOfferIgnored, p.offer, rd.retries)

	c.offerNextLocked(requestID, rd)
	return nil
}

// Rematch restarts offering of an active request without pending offers and
// resets its retry budget
func (c *Coordinator) Rematch(requestID string) error {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	req, err := c.registry.load(requestID)
	if err != nil {
		return err
	}
	if req.Status != schema.RequestActive {
		return &InvalidTransitionError{RequestID: requestID, From: req.Status, To: schema.RequestActive}
	}

	rd := c.openRound(requestID)
	if len(rd.pending) > 0 {
		return nil
	}

	rd.stopRematch()
	rd.retries = 0
	rd.passed = make(map[string]bool)
	c.offerNextLocked(requestID, rd)
	return nil
}

// expire is the timer callback of an offer
func (c *Coordinator) expire(requestID, helperID, offerID string) {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	rd := c.round(requestID)
	if rd == nil {
		return
	}

	p, ok := rd.pending[helperID]
	if !ok || p.offer.ID != offerID {
		return
	}
	c.expireLocked(requestID, rd, p)
}

func (c *Coordinator) expireLocked(requestID string, rd *round, p *pendingOffer) {
	c.resolveLocked(rd, p, schema.OfferExpired)
	rd.passed[p.offer.HelperID] = true
	c.tracker.Release(p.offer.HelperID, requestID)
	c.emitOffer(schema.EventOfferExpired, p.offer, rd.retries)

	log.WithField("request", requestID).WithField("helper", p.offer.HelperID).Debug("offer expired")
	c.offerNextLocked(requestID, rd)
}

// rematchAfterBackoff is the timer callback of an exhausted round
func (c *Coordinator) rematchAfterBackoff(requestID string, generation int) {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	rd := c.round(requestID)
	if rd == nil || rd.generation != generation || rd.phase != PhaseExhausted {
		return
	}

	rd.rematch = nil
	rd.passed = make(map[string]bool)
	c.offerNextLocked(requestID, rd)
}

// offerNextLocked tops the pending offers of an active request up to the
// configured capacity. A round that cannot issue any offer is exhausted.
func (c *Coordinator) offerNextLocked(requestID string, rd *round) {
	if rd.phase == PhaseAccepted || rd.phase == PhaseClosed {
		return
	}

	req, err := c.registry.load(requestID)
	if err != nil || req.Status != schema.RequestActive {
		return
	}

	capacity := c.cfg.capacity()
	if len(rd.pending) < capacity {
		seq := c.engine.FindCandidates(*req, c.tracker.Available(), c.cfg.MaxCandidates, rd.excluded()...)
		for len(rd.pending) < capacity {
			candidate, ok := seq.Next()
			if !ok {
				break
			}
			if !c.tracker.Reserve(candidate.Helper.ID, requestID) {
				continue
			}
			c.issueLocked(requestID, rd, candidate)
		}
	}

	if len(rd.pending) > 0 {
		rd.phase = PhaseOffering
		return
	}
	c.exhaustLocked(requestID, rd)
}

func (c *Coordinator) issueLocked(requestID string, rd *round, candidate matching.Candidate) {
	now := c.clock.Now()
	offer := &schema.Offer{
		ID:         c.newID(),
		RequestID:  requestID,
		HelperID:   candidate.Helper.ID,
		Distance:   candidate.Distance,
		IssuedAt:   now,
		ExpiresAt:  now.Add(c.cfg.OfferTimeout),
		Resolution: schema.OfferPending,
	}

	helperID, offerID := offer.HelperID, offer.ID
	p := &pendingOffer{offer: offer}
	rd.pending[helperID] = p
	rd.history = append(rd.history, offer)

	p.timer = c.clock.AfterFunc(c.cfg.OfferTimeout, func() {
		c.expire(requestID, helperID, offerID)
	})

	c.emitOffer(schema.EventOfferIssued, offer, rd.retries)
	log.WithField("request", requestID).WithField("helper", helperID).Debugf("offer issued at %.0fm", candidate.Distance)
}

func (c *Coordinator) exhaustLocked(requestID string, rd *round) {
	rd.phase = PhaseExhausted
	c.events.emit(schema.Event{
		Type:      schema.EventRequestExhausted,
		RequestID: requestID,
		Status:    schema.RequestActive,
		Attempt:   rd.retries,
		At:        c.clock.Now(),
	})

	if rd.retries >= c.cfg.MaxRetries {
		c.events.emit(schema.Event{
			Type:      schema.EventRequestNeedsAttention,
			RequestID: requestID,
			Status:    schema.RequestActive,
			Attempt:   rd.retries,
			At:        c.clock.Now(),
		})
		log.WithField("request", requestID).Warn("no helper found, request needs manual attention")
		sentry.CaptureMessage(fmt.Sprintf("request %s needs manual attention after %d retries", requestID, rd.retries))
		return
	}

	rd.stopRematch()
	rd.retries++
	generation := rd.generation
	rd.rematch = c.clock.AfterFunc(c.cfg.Backoff, func() {
		c.rematchAfterBackoff(requestID, generation)
	})
}

// resolveLocked closes a pending offer. The expiry timer is stopped without
// waiting; a callback that already fired finds the offer resolved.
func (c *Coordinator) resolveLocked(rd *round, p *pendingOffer, resolution schema.OfferResolution) {
	now := c.clock.Now()
	p.offer.Resolution = resolution
	p.offer.RespondedAt = &now
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(rd.pending, p.offer.HelperID)
}

// withdrawLocked ignores every pending offer of a request
func (c *Coordinator) withdrawLocked(requestID string, rd *round) {
	helperIDs := make([]string, 0, len(rd.pending))
	for id := range rd.pending {
		helperIDs = append(helperIDs, id)
	}
	sort.Strings(helperIDs)

	for _, id := range helperIDs {
		p := rd.pending[id]
		c.resolveLocked(rd, p, schema.OfferIgnored)
		c.tracker.Release(id, requestID)
		c.emitOffer(schema.EventOfferIgnored, p.offer, rd.retries)
	}
	rd.stopRematch()
}

func (c *Coordinator) emitOffer(t schema.EventType, offer *schema.Offer, attempt int) {
	snapshot := offer.Clone()
	c.events.emit(schema.Event{
		Type:      t,
		RequestID: offer.RequestID,
		HelperID:  offer.HelperID,
		Attempt:   attempt,
		At:        c.clock.Now(),
		Offer:     &snapshot,
	})
}

// Phase returns the offering state of a request
func (c *Coordinator) Phase(requestID string) Phase {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	if rd := c.round(requestID); rd != nil {
		return rd.phase
	}
	return PhaseUnoffered
}

// ListOffers returns every offer issued for a request, oldest first
func (c *Coordinator) ListOffers(requestID string) ([]schema.Offer, error) {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	if _, err := c.registry.load(requestID); err != nil {
		return nil, err
	}

	offers := make([]schema.Offer, 0)
	if rd := c.round(requestID); rd != nil {
		for _, o := range rd.history {
			offers = append(offers, o.Clone())
		}
	}
	return offers, nil
}

// PendingOffers returns the offers of a request still waiting for an answer
func (c *Coordinator) PendingOffers(requestID string) []schema.Offer {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	offers := make([]schema.Offer, 0)
	rd := c.round(requestID)
	if rd == nil {
		return offers
	}
	for _, o := range rd.history {
		if o.IsPending() {
			offers = append(offers, o.Clone())
		}
	}
	return offers
}

// ListCandidates ranks the helpers that could receive the next offer of an
// active request
func (c *Coordinator) ListCandidates(requestID string) ([]matching.Candidate, error) {
	unlock := c.locks.Lock(requestID)
	defer unlock()

	req, err := c.registry.load(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != schema.RequestActive {
		return []matching.Candidate{}, nil
	}

	var excluded []string
	if rd := c.round(requestID); rd != nil {
		excluded = rd.excluded()
	}
	return c.engine.FindCandidates(*req, c.tracker.Available(), c.cfg.MaxCandidates, excluded...).All(), nil
}
