package geo

import (
	"math"

	"github.com/helpme-app/helpme-api/schema"
)

// EarthRadius is the mean earth radius in meters
const EarthRadius = 6371008.8

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance in meters between two
// locations using the haversine formula
func Distance(a, b schema.Location) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Offset moves a location north and east by the given meters. It is a flat
// approximation only meant for short distances.
func Offset(loc schema.Location, north, east float64) schema.Location {
	dLat := north / EarthRadius
	dLng := east / (EarthRadius * math.Cos(toRadians(loc.Latitude)))

	return schema.Location{
		Latitude:  loc.Latitude + dLat*180/math.Pi,
		Longitude: loc.Longitude + dLng*180/math.Pi,
	}
}
