package kernel

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// Affinity scores returned by Location.Affinity.
const (
	AffinitySameRegion  = 1.0
	AffinitySameCountry = 0.5
	AffinityOther       = 0.0
)

// ErrLocationIsNotConstructed is returned when a zero-value Location is used.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError("location must be created via NewLocation")

// Location is a coarse, free-text place: a country, an optional region inside
// it and an optional city. Geocoding is not performed; comparison is
// case-insensitive on trimmed values.
//
//	loc, err := kernel.NewLocation("MA", "Casablanca-Settat", "Casablanca")
type Location struct { //nolint:recvcheck // setters use pointer receivers during construction
	country string
	region  string
	city    string
	guard   guard.ConstructorGuard
}

// NewLocation validates and normalizes a location. The country is required.
func NewLocation(country, region, city string) (Location, error) {
	loc := Location{guard: guard.NewConstructorGuard()}

	if err := errors.Join(loc.setCountry(country), loc.setRegion(region)); err != nil {
		return Location{}, err
	}
	loc.city = strings.TrimSpace(city)

	return loc, nil
}

// Validate reports whether the location was built by NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) Country() string { return l.country }
func (l Location) Region() string  { return l.region }
func (l Location) City() string    { return l.city }

// String renders "city, region, country" skipping empty parts.
func (l Location) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{l.city, l.region, l.country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Affinity returns how close two locations are on the coarse scale used for
// matching: same region 1.0, same country 0.5, anything else 0.0. A location
// without a region can only reach the country level.
func (l Location) Affinity(other Location) float64 {
	if l.Validate() != nil || other.Validate() != nil {
		return AffinityOther
	}
	if !strings.EqualFold(l.country, other.country) {
		return AffinityOther
	}
	if l.region != "" && strings.EqualFold(l.region, other.region) {
		return AffinitySameRegion
	}
	return AffinitySameCountry
}

// IsEqual compares all three components case-insensitively.
func (l Location) IsEqual(other Location) bool {
	return strings.EqualFold(l.country, other.country) &&
		strings.EqualFold(l.region, other.region) &&
		strings.EqualFold(l.city, other.city)
}

func (l *Location) setCountry(country string) error {
	country = strings.TrimSpace(country)
	if country == "" {
		return errs.NewValueIsRequiredError("country")
	}
	if len(country) > 64 {
		return errs.NewValueIsInvalidErrorWithCause("country", fmt.Errorf("%d characters exceeds 64", len(country)))
	}
	l.country = country
	return nil
}

func (l *Location) setRegion(region string) error {
	region = strings.TrimSpace(region)
	if len(region) > 128 {
		return errs.NewValueIsInvalidErrorWithCause("region", fmt.Errorf("%d characters exceeds 128", len(region)))
	}
	l.region = region
	return nil
}
