package store

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"

	"github.com/helpme-app/helpme-api/schema"
)

var (
	ErrRequestNotExist = fmt.Errorf("help request does not exist")
	ErrHelperNotExist  = fmt.Errorf("helper does not exist")
)

// SaveRequest inserts a request or overwrites the stored snapshot of it.
// Snapshots may arrive out of order, so one at an earlier lifecycle stage
// than the stored row is ignored.
func (s *HelpStore) SaveRequest(r schema.HelpRequest) error {
	tx := s.ormDB.Begin()
	if err := tx.Error; err != nil {
		return err
	}

	inserted := tx.Set("gorm:insert_option", "ON CONFLICT (id) DO NOTHING").Create(&r)
	if err := inserted.Error; err != nil {
		tx.Rollback()
		return err
	}
	if inserted.RowsAffected == 1 {
		return tx.Commit().Error
	}

	var stored schema.HelpRequest
	if err := tx.Set("gorm:query_option", "FOR UPDATE").Where("id = ?", r.ID).First(&stored).Error; err != nil {
		tx.Rollback()
		return err
	}

	if r.Status.Stage() < stored.Status.Stage() {
		log.WithField("request", r.ID).
			WithField("stored", stored.Status).
			WithField("snapshot", r.Status).
			Debug("skip outdated request snapshot")
		tx.Rollback()
		return nil
	}

	if err := tx.Save(&r).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (s *HelpStore) GetRequest(requestID string) (*schema.HelpRequest, error) {
	var r schema.HelpRequest

	if err := s.ormDB.Where("id = ?", requestID).First(&r).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrRequestNotExist
		}
		return nil, err
	}

	return &r, nil
}

// ListRequests returns requests in any of the given statuses, oldest first.
// No status means every request.
func (s *HelpStore) ListRequests(statuses ...schema.RequestStatus) ([]schema.HelpRequest, error) {
	requests := []schema.HelpRequest{}

	q := s.ormDB.Order("created_at, id")
	if len(statuses) > 0 {
		q = q.Where("status IN (?)", statuses)
	}

	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// ListStaleRequests returns active requests created before the given time
func (s *HelpStore) ListStaleRequests(createdBefore time.Time) ([]schema.HelpRequest, error) {
	requests := []schema.HelpRequest{}

	if err := s.ormDB.
		Where("status = ? AND created_at <= ?", schema.RequestActive, createdBefore).
		Order("created_at").
		Find(&requests).Error; err != nil {
		return nil, err
	}

	return requests, nil
}

type statusCount struct {
	Status schema.RequestStatus
	Count  int
}

// RequestStats counts requests by status and helpers by availability
func (s *HelpStore) RequestStats() (schema.RequestStats, error) {
	var stats schema.RequestStats

	counts := []statusCount{}
	if err := s.ormDB.Model(&schema.HelpRequest{}).
		Select("status, count(*) AS count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return stats, err
	}
	for _, c := range counts {
		stats.Add(c.Status, c.Count)
	}

	if err := s.ormDB.Model(&schema.Helper{}).
		Where("available = ?", true).
		Count(&stats.AvailableHelpers).Error; err != nil {
		return stats, err
	}

	if err := s.ormDB.Model(&schema.HelpRequest{}).
		Where("status = ?", schema.RequestAccepted).
		Select("count(DISTINCT helper_id)").
		Count(&stats.BusyHelpers).Error; err != nil {
		return stats, err
	}

	return stats, nil
}
