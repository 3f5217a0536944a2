package store

import (
	"github.com/helpme-app/helpme-api/schema"
)

// ArchiveEvent appends an event to the history table
func (s *HelpStore) ArchiveEvent(e schema.Event) error {
	record := schema.EventRecord{
		Type:      e.Type,
		RequestID: e.RequestID,
		HelperID:  e.HelperID,
		Payload:   e,
		CreatedAt: e.At,
	}
	return s.ormDB.Create(&record).Error
}

// ListEvents returns the archived events of a request in the order they happened
func (s *HelpStore) ListEvents(requestID string) ([]schema.EventRecord, error) {
	records := []schema.EventRecord{}

	if err := s.ormDB.Where("request_id = ?", requestID).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
