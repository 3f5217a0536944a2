package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

type EventType string

const (
	EventRequestCreated        EventType = "request.created"
	EventRequestAccepted       EventType = "request.accepted"
	EventRequestCompleted      EventType = "request.completed"
	EventRequestCancelled      EventType = "request.cancelled"
	EventRequestExhausted      EventType = "request.exhausted"
	EventRequestNeedsAttention EventType = "request.needs_attention"
	EventOfferIssued           EventType = "offer.issued"
	EventOfferIgnored          EventType = "offer.ignored"
	EventOfferExpired          EventType = "offer.expired"
	EventHelperCredited        EventType = "helper.credited"
)

// MetricName is the event type in a form accepted by metric reporters
func (t EventType) MetricName() string {
	return strings.Replace(string(t), ".", "_", -1)
}

// Event is a lifecycle notification about a request or one of its offers.
// Request, Offer and Helper carry snapshots taken when the event happened.
type Event struct {
	Type      EventType     `json:"type"`
	RequestID string        `json:"request_id"`
	HelperID  string        `json:"helper_id,omitempty"`
	Status    RequestStatus `json:"status,omitempty"`
	Attempt   int           `json:"attempt,omitempty"`
	At        time.Time     `json:"at"`
	Request   *HelpRequest  `json:"request,omitempty"`
	Offer     *Offer        `json:"offer,omitempty"`
	Helper    *Helper       `json:"helper,omitempty"`
}

func (e Event) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Event) Scan(src interface{}) error {
	source, ok := src.([]byte)
	if !ok {
		return errors.New("Type assertion .([]byte) failed.")
	}
	return json.Unmarshal(source, e)
}

// EventRecord is an archived event
type EventRecord struct {
	ID        uint64    `gorm:"primary_key"`
	Type      EventType `gorm:"index"`
	RequestID string    `gorm:"index"`
	HelperID  string    `gorm:"index"`
	Payload   Event     `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
}
