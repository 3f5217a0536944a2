package dispatch

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/helpme-app/helpme-api/availability"
	"github.com/helpme-app/helpme-api/geo"
	"github.com/helpme-app/helpme-api/matching"
	"github.com/helpme-app/helpme-api/schema"
	"github.com/helpme-app/helpme-api/utils"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "dispatch")
}

type Options struct {
	Config   Config
	Clock    clock.Clock
	Resolver geo.AddressResolver
	Sinks    []EventSink
	Scope    tally.Scope
	NewID    func() string
}

// Dispatcher is the entry point of the matching and lifecycle engine. All
// mutations of one request are serialized; different requests proceed in
// parallel.
type Dispatcher struct {
	registry    *Registry
	coordinator *Coordinator
	tracker     *availability.Tracker
	engine      *matching.Engine
	clock       clock.Clock
}

func New(tracker *availability.Tracker, opts Options) *Dispatcher {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.NewID == nil {
		opts.NewID = func() string {
			return uuid.New().String()
		}
	}
	if opts.Config == (Config{}) {
		opts.Config = DefaultConfig()
	}

	locks := utils.NewKeyedMutex()
	events := newEmitter(opts.Scope, opts.Sinks...)
	engine := matching.NewEngine(tracker, opts.Config.MaxDistance)
	registry := newRegistry(locks, opts.Clock, opts.Resolver, events, opts.NewID)
	coordinator := newCoordinator(opts.Config, locks, opts.Clock, registry, tracker, engine, events, opts.NewID)

	return &Dispatcher{
		registry:    registry,
		coordinator: coordinator,
		tracker:     tracker,
		engine:      engine,
		clock:       opts.Clock,
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

func (d *Dispatcher) Coordinator() *Coordinator {
	return d.coordinator
}

func (d *Dispatcher) Tracker() *availability.Tracker {
	return d.tracker
}

func (d *Dispatcher) Config() Config {
	return d.coordinator.cfg
}

// CreateRequest stores a new request and starts offering it to helpers
func (d *Dispatcher) CreateRequest(ctx context.Context, requesterID string, category schema.Category, title, description string, location schema.Location, images ...string) (schema.HelpRequest, error) {
	return d.registry.Create(ctx, requesterID, category, title, description, location, images...)
}

func (d *Dispatcher) CancelRequest(requestID, byUserID string) (schema.HelpRequest, error) {
	return d.registry.Cancel(requestID, byUserID)
}

// CancelStale cancels an active request created before the cutoff on
// behalf of its requester
func (d *Dispatcher) CancelStale(requestID string, createdBefore time.Time) (bool, error) {
	return d.registry.CancelStale(requestID, createdBefore)
}

func (d *Dispatcher) CompleteRequest(requestID, byHelperID string) (schema.HelpRequest, error) {
	return d.registry.Complete(requestID, byHelperID)
}

func (d *Dispatcher) Accept(requestID, helperID string) (schema.HelpRequest, error) {
	return d.coordinator.Accept(requestID, helperID)
}

func (d *Dispatcher) Ignore(requestID, helperID string) error {
	return d.coordinator.Ignore(requestID, helperID)
}

func (d *Dispatcher) Rematch(requestID string) error {
	return d.coordinator.Rematch(requestID)
}

func (d *Dispatcher) GetRequest(requestID string) (schema.HelpRequest, error) {
	return d.registry.Get(requestID)
}

func (d *Dispatcher) ListActiveRequests() []schema.HelpRequest {
	return d.registry.ListActive()
}

// ListRequests returns the requests a user created or helped with
func (d *Dispatcher) ListRequests(userID string) []schema.HelpRequest {
	return d.registry.List(func(r *schema.HelpRequest) bool {
		return r.RequesterID == userID || r.HelperID == userID
	})
}

func (d *Dispatcher) ListCandidates(requestID string) ([]matching.Candidate, error) {
	return d.coordinator.ListCandidates(requestID)
}

func (d *Dispatcher) ListOffers(requestID string) ([]schema.Offer, error) {
	return d.coordinator.ListOffers(requestID)
}

// PendingOffersFor returns the offers currently waiting for a helper's answer
func (d *Dispatcher) PendingOffersFor(helperID string) []schema.Offer {
	offers := make([]schema.Offer, 0)
	for _, r := range d.registry.ListActive() {
		for _, o := range d.coordinator.PendingOffers(r.ID) {
			if o.HelperID == helperID {
				offers = append(offers, o)
			}
		}
	}
	return offers
}

// Stats summarizes requests and helpers for the admin dashboard
func (d *Dispatcher) Stats() schema.RequestStats {
	stats := d.registry.Stats()
	stats.AvailableHelpers, stats.BusyHelpers = d.tracker.Counts()
	return stats
}

func (d *Dispatcher) RegisterHelper(h schema.Helper) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = d.clock.Now()
	}
	return d.tracker.Register(h)
}

func (d *Dispatcher) GetHelper(helperID string) (schema.Helper, error) {
	return d.tracker.Get(helperID)
}

func (d *Dispatcher) SetAvailable(helperID string, loc schema.Location) error {
	return d.tracker.SetAvailable(helperID, loc)
}

func (d *Dispatcher) SetUnavailable(helperID string) error {
	return d.tracker.SetUnavailable(helperID)
}

func (d *Dispatcher) UpdateLocation(helperID string, loc schema.Location) error {
	return d.tracker.UpdateLocation(helperID, loc)
}

// Restore loads requests persisted by a previous run. Accepted requests
// keep their helper busy and active ones are offered again.
func (d *Dispatcher) Restore(requests []schema.HelpRequest) {
	for _, req := range requests {
		d.registry.restore(req)

		switch req.Status {
		case schema.RequestAccepted:
			d.tracker.Assign(req.HelperID, req.ID)
		case schema.RequestActive:
			if err := d.coordinator.Rematch(req.ID); err != nil {
				log.WithError(err).WithField("request", req.ID).Warn("restart offering")
			}
		}
	}
	log.Infof("restored %d requests", len(requests))
}
