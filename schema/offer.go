package schema

import (
	"time"
)

type OfferResolution string

const (
	OfferPending  OfferResolution = "pending"
	OfferAccepted OfferResolution = "accepted"
	OfferIgnored  OfferResolution = "ignored"
	OfferExpired  OfferResolution = "expired"
)

// Offer is a time-bounded proposal of one request to one helper. It refers
// to both sides by identifier only.
type Offer struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	HelperID    string          `json:"helper_id"`
	Distance    float64         `json:"distance"`
	IssuedAt    time.Time       `json:"issued_at"`
	ExpiresAt   time.Time       `json:"expires_at"`
	RespondedAt *time.Time      `json:"responded_at,omitempty"`
	Resolution  OfferResolution `json:"resolution"`
}

func (o Offer) IsPending() bool {
	return o.Resolution == OfferPending
}

// IsExpiredAt reports whether the offer window has elapsed at t
func (o Offer) IsExpiredAt(t time.Time) bool {
	return !t.Before(o.ExpiresAt)
}

func (o Offer) Clone() Offer {
	c := o
	c.RespondedAt = copyTime(o.RespondedAt)
	return c
}
