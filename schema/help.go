package schema

import (
	"time"
)

type RequestStatus string

const (
	RequestActive    RequestStatus = "active"
	RequestAccepted  RequestStatus = "accepted"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// requestTransitions lists every status change a help request may go through
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestActive:   {RequestAccepted, RequestCancelled},
	RequestAccepted: {RequestCompleted, RequestCancelled},
}

// CanTransitionTo reports whether a request in status s may move to next
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, n := range requestTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Stage orders statuses along the lifecycle. A snapshot never replaces one
// at a later stage.
func (s RequestStatus) Stage() int {
	switch s {
	case RequestActive:
		return 0
	case RequestAccepted:
		return 1
	case RequestCompleted, RequestCancelled:
		return 2
	}
	return -1
}

// IsTerminal reports whether no transition out of s exists
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

type Category string

const (
	CategoryCarBreakdown Category = "car_breakdown"
	CategoryFirstAid     Category = "first_aid"
	CategoryHomeRepair   Category = "home_repair"
	CategoryTechSupport  Category = "tech_support"
	CategoryShopping     Category = "shopping"
	CategoryOther        Category = "other"
)

var Categories = []Category{
	CategoryCarBreakdown,
	CategoryFirstAid,
	CategoryHomeRepair,
	CategoryTechSupport,
	CategoryShopping,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// HelpRequest is a single assistance need posted by a requester.
// HelperID is set only while the request is accepted or completed.
type HelpRequest struct {
	ID          string        `json:"id" gorm:"primary_key"`
	RequesterID string        `json:"requester_id" gorm:"index"`
	Category    Category      `json:"category"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Images      StringArray   `json:"images,omitempty" gorm:"type:jsonb;not null;default '[]'"`
	Location    Location      `json:"location" gorm:"type:jsonb;not null"`
	Status      RequestStatus `json:"status" gorm:"index"`
	HelperID    string        `json:"helper_id,omitempty"`
	CancelledBy string        `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	AcceptedAt  *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
}

// Clone returns a deep copy so callers never share state with the registry
func (r HelpRequest) Clone() HelpRequest {
	c := r
	if r.Images != nil {
		c.Images = append(StringArray{}, r.Images...)
	}
	c.AcceptedAt = copyTime(r.AcceptedAt)
	c.CompletedAt = copyTime(r.CompletedAt)
	c.CancelledAt = copyTime(r.CancelledAt)
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// RequestStats is the aggregate view shown on the admin dashboard
type RequestStats struct {
	Total            int `json:"total"`
	Active           int `json:"active"`
	Accepted         int `json:"accepted"`
	Completed        int `json:"completed"`
	Cancelled        int `json:"cancelled"`
	AvailableHelpers int `json:"available_helpers"`
	BusyHelpers      int `json:"busy_helpers"`
}

// Add counts one request of the given status
func (s *RequestStats) Add(status RequestStatus, n int) {
	s.Total += n
	switch status {
	case RequestActive:
		s.Active += n
	case RequestAccepted:
		s.Accepted += n
	case RequestCompleted:
		s.Completed += n
	case RequestCancelled:
		s.Cancelled += n
	}
}
