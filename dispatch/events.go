package dispatch

import (
	"github.com/uber-go/tally"

	"github.com/helpme-app/helpme-api/schema"
)

// EventSink receives lifecycle events. Publish runs inside the critical
// section of the request, so it must not block and must not call back into
// the dispatcher.
type EventSink interface {
	Publish(schema.Event) error
}

// EventSinkFunc adapts a function to EventSink
type EventSinkFunc func(schema.Event) error

func (f EventSinkFunc) Publish(e schema.Event) error {
	return f(e)
}

type emitter struct {
	sinks     []EventSink
	listeners []func(schema.Event)
	scope     tally.Scope
}

func newEmitter(scope tally.Scope, sinks ...EventSink) *emitter {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &emitter{
		sinks: sinks,
		scope: scope,
	}
}

func (e *emitter) subscribe(l func(schema.Event)) {
	e.listeners = append(e.listeners, l)
}

// emit delivers an event to external sinks first and then to in-process
// listeners, so sinks observe a request before the offers it triggers
func (e *emitter) emit(event schema.Event) {
	e.scope.Counter(event.Type.MetricName()).Inc(1)

	for _, s := range e.sinks {
		if err := s.Publish(event); err != nil {
			log.WithError(err).WithField("event", event.Type).Warn("event sink rejected event")
		}
	}

	for _, l := range e.listeners {
		l(event)
	}
}
