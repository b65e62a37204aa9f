package service

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// CivilLayout is the wire format for civil (offset-free) timestamps
const CivilLayout = "2006-01-02T15:04:05"

var (
	ErrInvalidTimezone    = errors.New("invalid timezone")
	ErrMalformedTimestamp = errors.New("malformed timestamp, use YYYY-MM-DDTHH:mm:ss")
)

// TimeConverter moves civil times between a doctor's IANA zone and the
// canonical zone visits are stored in.
type TimeConverter struct {
	canonical *time.Location
	zones     sync.Map // map[string]*time.Location
}

func NewTimeConverter(canonical *time.Location) *TimeConverter {
	if canonical == nil {
		canonical = time.Local
	}
	return &TimeConverter{canonical: canonical}
}

// Canonical returns the storage reference location
func (c *TimeConverter) Canonical() *time.Location {
	return c.canonical
}

// Location resolves an IANA zone name, caching the result
func (c *TimeConverter) Location(zone string) (*time.Location, error) {
	if cached, ok := c.zones.Load(zone); ok {
		return cached.(*time.Location), nil
	}
	// LoadLocation maps "" to UTC and "Local" to the host zone; neither is an IANA name
	if zone == "" || zone == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, zone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, zone)
	}
	actual, _ := c.zones.LoadOrStore(zone, loc)
	return actual.(*time.Location), nil
}

// ParseCivil parses a civil timestamp as wall-clock time in loc
func ParseCivil(civil string, loc *time.Location) (time.Time, error) {
	// time.Parse tolerates a trailing fractional second; the wire format does not
	if len(civil) != len(CivilLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, civil)
	}
	t, err := time.ParseInLocation(CivilLayout, civil, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, civil)
	}
	return t, nil
}

// ToCanonical interprets civil as wall-clock time in zone and returns the
// same instant in the canonical location.
func (c *TimeConverter) ToCanonical(civil string, zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseCivil(civil, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(c.canonical), nil
}

// ToLocal renders instant as civil time in zone
func (c *TimeConverter) ToLocal(instant time.Time, zone string) (string, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return "", err
	}
	return instant.In(loc).Format(CivilLayout), nil
}

// FromCivil is ToCanonical for a wall-clock value already split into fields,
// used by the fixture generator.
func (c *TimeConverter) FromCivil(year int, month time.Month, day, hour, minute int, zone string) (time.Time, error) {
	loc, err := c.Location(zone)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc).In(c.canonical), nil
}
