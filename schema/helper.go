package schema

import (
	"time"
)

// Helper is a volunteer who may be offered help requests.
// Location is only meaningful while Available is true.
type Helper struct {
	ID         string      `json:"id" gorm:"primary_key"`
	Name       string      `json:"name"`
	Rating     float64     `json:"rating"`
	TotalHelps int         `json:"total_helps"`
	Points     int         `json:"points"`
	Badges     StringArray `json:"badges" gorm:"type:jsonb;not null;default '[]'"`
	Available  bool        `json:"available"`
	Location   *Location   `json:"location,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (h Helper) Clone() Helper {
	c := h
	if h.Badges != nil {
		c.Badges = append(StringArray{}, h.Badges...)
	}
	if h.Location != nil {
		loc := *h.Location
		c.Location = &loc
	}
	return c
}

func (h Helper) HasBadge(badge string) bool {
	for _, b := range h.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

const (
	HelperLocationCollection = "helper_locations"
)

// HelperPosition is the last reported coordinate of a helper in mongodb
type HelperPosition struct {
	HelperID  string  `bson:"helper_id"`
	Location  GeoJSON `bson:"location"`
	Address   string  `bson:"address,omitempty"`
	Timestamp int64   `bson:"ts"`
}

func (p HelperPosition) ToLocation() Location {
	loc := Location{Address: p.Address}
	if len(p.Location.Coordinates) == 2 {
		loc.Longitude = p.Location.Coordinates[0]
		loc.Latitude = p.Location.Coordinates[1]
	}
	return loc
}
