package store

import (
	"github.com/jinzhu/gorm"

	"github.com/helpme-app/helpme-api/schema"
)

// SaveHelper inserts a helper or overwrites the stored profile
func (s *HelpStore) SaveHelper(h schema.Helper) error {
	return s.ormDB.Save(&h).Error
}

func (s *HelpStore) GetHelper(helperID string) (*schema.Helper, error) {
	var h schema.Helper

	if err := s.ormDB.Where("id = ?", helperID).First(&h).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrHelperNotExist
		}
		return nil, err
	}

	return &h, nil
}

func (s *HelpStore) ListHelpers() ([]schema.Helper, error) {
	helpers := []schema.Helper{}

	if err := s.ormDB.Order("id").Find(&helpers).Error; err != nil {
		return nil, err
	}
	return helpers, nil
}
