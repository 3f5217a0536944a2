package store

import (
	"time"

	"github.com/jinzhu/gorm"

	"github.com/helpme-app/helpme-api/schema"
)

// HelpCore is the relational datastore of requests, helpers and archived
// events
type HelpCore interface {
	Ping() error

	// Request
	SaveRequest(schema.HelpRequest) error
	GetRequest(requestID string) (*schema.HelpRequest, error)
	ListRequests(statuses ...schema.RequestStatus) ([]schema.HelpRequest, error)
	ListStaleRequests(createdBefore time.Time) ([]schema.HelpRequest, error)
	RequestStats() (schema.RequestStats, error)

	// Helper
	SaveHelper(schema.Helper) error
	GetHelper(helperID string) (*schema.Helper, error)
	ListHelpers() ([]schema.Helper, error)

	// Event
	ArchiveEvent(schema.Event) error
	ListEvents(requestID string) ([]schema.EventRecord, error)
}

// HelpStore is an implementation of HelpCore
type HelpStore struct {
	ormDB *gorm.DB
}

func NewHelpStore(ormDB *gorm.DB) *HelpStore {
	return &HelpStore{
		ormDB: ormDB,
	}
}

// Ping is to check the storage health status
func (s *HelpStore) Ping() error {
	return s.ormDB.DB().Ping()
}
