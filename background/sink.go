package background

import (
	"encoding/json"
	"sync"

	"github.com/RichardKnop/machinery/v1/backends/result"
	"github.com/RichardKnop/machinery/v1/tasks"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/helpme-app/helpme-api/schema"
)

var log *logrus.Entry

func init() {
	log = logrus.WithField("prefix", "background")
}

const (
	TaskHandleEvent = "handle_event"

	// SubjectPrefix is prepended to the event type to build nats subjects
	SubjectPrefix = "helpme.events."
)

// Publisher is anything that accepts lifecycle events
type Publisher interface {
	Publish(schema.Event) error
}

// TaskSender enqueues machinery tasks
type TaskSender interface {
	SendTask(signature *tasks.Signature) (*result.AsyncResult, error)
}

// MachinerySink enqueues every event for the background worker
type MachinerySink struct {
	sender TaskSender
}

func NewMachinerySink(sender TaskSender) *MachinerySink {
	return &MachinerySink{sender: sender}
}

func (s *MachinerySink) Publish(e schema.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	_, err = s.sender.SendTask(&tasks.Signature{
		Name: TaskHandleEvent,
		Args: []tasks.Arg{
			{Type: "string", Value: string(payload)},
		},
	})
	return err
}

// MessagePublisher is satisfied by *nats.Conn
type MessagePublisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes every event on a subject named after its type
type NATSSink struct {
	conn MessagePublisher
}

func NewNATSSink(conn MessagePublisher) *NATSSink {
	return &NATSSink{conn: conn}
}

func (s *NATSSink) Publish(e schema.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.conn.Publish(SubjectPrefix+string(e.Type), payload)
}

// StoreSink persists snapshots carried by events in-process. It is used
// when no task queue is configured.
type StoreSink struct {
	manager *BackgroundManager
}

func NewStoreSink(manager *BackgroundManager) *StoreSink {
	return &StoreSink{manager: manager}
}

func (s *StoreSink) Publish(e schema.Event) error {
	return s.manager.persist(e)
}

// AsyncSink hands events to a slower publisher from a buffered queue so the
// caller never waits on network I/O. Events are dropped when the queue is full.
type AsyncSink struct {
	name   string
	target Publisher
	queue  chan schema.Event
	scope  tally.Scope

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewAsyncSink(name string, target Publisher, size int, scope tally.Scope) *AsyncSink {
	if scope == nil {
		scope = tally.NoopScope
	}

	s := &AsyncSink{
		name:   name,
		target: target,
		queue:  make(chan schema.Event, size),
		scope:  scope.Tagged(map[string]string{"sink": name}),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSink) run() {
	defer s.wg.Done()

	for e := range s.queue {
		if err := s.target.Publish(e); err != nil {
			s.scope.Counter("publish_failed").Inc(1)
			log.WithError(err).WithField("sink", s.name).WithField("event", e.Type).Error("publish event")
		}
	}
}

// Publish queues an event. Events arriving after Close are dropped.
func (s *AsyncSink) Publish(e schema.Event) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.scope.Counter("dropped").Inc(1)
		log.WithField("sink", s.name).WithField("event", e.Type).Warn("sink is closed, drop event")
		return nil
	}

	select {
	case s.queue <- e:
		return nil
	default:
		s.scope.Counter("dropped").Inc(1)
		log.WithField("sink", s.name).WithField("event", e.Type).Warn("event queue is full, drop event")
		return nil
	}
}

// Close stops accepting events and waits until queued ones are published
func (s *AsyncSink) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
