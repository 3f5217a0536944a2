package geo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"googlemaps.github.io/maps"

	"github.com/helpme-app/helpme-api/schema"
)

var (
	ErrNoGeoInfoFound         = fmt.Errorf("no geo information found")
	ErrResolverNotInitialized = fmt.Errorf("address resolver is not initialized")
)

const defaultTimeout = 5 * time.Second

// AddressResolver fills a human readable address for a coordinate
type AddressResolver interface {
	ResolveAddress(context.Context, schema.Location) (schema.Location, error)
}

type MultipleResolverErrors struct {
	errors []error
}

func (e *MultipleResolverErrors) Error() string {
	errorStrings := make([]string, len(e.errors))
	for i, err := range e.errors {
		errorStrings[i] = fmt.Sprintf("#%d: %s", i, err.Error())
	}
	return strings.Join(errorStrings, "\n")
}

func NewMultipleResolverErrors(errors []error) *MultipleResolverErrors {
	return &MultipleResolverErrors{
		errors: errors,
	}
}

// geocoder is the part of *maps.Client the resolver depends on
type geocoder interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type GeocodingAddressResolver struct {
	client   geocoder
	language string
}

func NewGeocodingAddressResolver(client *maps.Client, language string) *GeocodingAddressResolver {
	return &GeocodingAddressResolver{
		client:   client,
		language: language,
	}
}

func (g *GeocodingAddressResolver) ResolveAddress(ctx context.Context, loc schema.Location) (schema.Location, error) {
	if loc.Address != "" {
		return loc, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	geos, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{
			Lat: loc.Latitude,
			Lng: loc.Longitude,
		},
		Language: g.language,
	})
	if nil != err {
		return loc, err
	}

	if len(geos) == 0 {
		return loc, ErrNoGeoInfoFound
	}

	loc.Address = geos[0].FormattedAddress
	return loc, nil
}

type MultipleAddressResolver struct {
	resolvers []AddressResolver
}

func NewMultipleAddressResolver(resolvers ...AddressResolver) *MultipleAddressResolver {
	return &MultipleAddressResolver{
		resolvers: resolvers,
	}
}

func (r *MultipleAddressResolver) ResolveAddress(ctx context.Context, loc schema.Location) (schema.Location, error) {
	if len(r.resolvers) == 0 {
		return loc, ErrResolverNotInitialized
	}

	var errors []error
	for _, resolver := range r.resolvers {
		result, err := resolver.ResolveAddress(ctx, loc)
		if err != nil {
			errors = append(errors, err)
		} else {
			return result, nil
		}
	}

	return loc, NewMultipleResolverErrors(errors)
}
