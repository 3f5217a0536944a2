package dispatch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uber-go/tally"

	"github.com/helpme-app/helpme-api/schema"
)

func TestEmitterOrder(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	order := make([]string, 0)

	e := newEmitter(scope,
		EventSinkFunc(func(schema.Event) error {
			order = append(order, "failing sink")
			return fmt.Errorf("broker is down")
		}),
		EventSinkFunc(func(schema.Event) error {
			order = append(order, "sink")
			return nil
		}),
	)
	e.subscribe(func(schema.Event) {
		order = append(order, "listener")
	})

	e.emit(schema.Event{Type: schema.EventOfferIssued, RequestID: "r1"})
	e.emit(schema.Event{Type: schema.EventOfferIssued, RequestID: "r2"})

	assert.Equal(t, []string{"failing sink", "sink", "listener", "failing sink", "sink", "listener"}, order)

	counters := scope.Snapshot().Counters()
	if assert.Contains(t, counters, "offer_issued+") {
		assert.Equal(t, int64(2), counters["offer_issued+"].Value())
	}
}

func TestEmitterWithoutScope(t *testing.T) {
	e := newEmitter(nil)
	assert.NotPanics(t, func() {
		e.emit(schema.Event{Type: schema.EventRequestCreated})
	})
}
