// Package timezone holds the supported client timezones, the local-to-UTC
// hour arithmetic used to build availability queries, and the wall-clock
// formatting used to display slots.
package timezone

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // display must not depend on the host's zoneinfo

	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

// OperationsID identifies the zone the business operates from.
const OperationsID = "egypt"

// Descriptor describes one supported timezone.
type Descriptor struct {
	ID          string `json:"id"`
	IANA        string `json:"iana"`
	OffsetHours int    `json:"offset_hours"`
	Label       string `json:"label"`

	loc *time.Location
}

// Location returns the IANA location backing the descriptor.
func (d Descriptor) Location() *time.Location {
	if d.loc == nil {
		return time.FixedZone(d.Label, d.OffsetHours*3600)
	}
	return d.loc
}

// DefaultDescriptors is the curated set of zones the sales team books for.
// OffsetHours only drives the search-hour arithmetic. Anything that maps a
// wall clock to an instant (display, parsing, teacher edits) uses IANA rules,
// which matters for Egypt: +3 in summer, +2 in winter.
var DefaultDescriptors = []Descriptor{
	{ID: "saudi", IANA: "Asia/Riyadh", OffsetHours: 3, Label: "Saudi Arabia"},
	{ID: "qatar", IANA: "Asia/Qatar", OffsetHours: 3, Label: "Qatar"},
	{ID: "kuwait", IANA: "Asia/Kuwait", OffsetHours: 3, Label: "Kuwait"},
	{ID: "bahrain", IANA: "Asia/Bahrain", OffsetHours: 3, Label: "Bahrain"},
	{ID: "uae", IANA: "Asia/Dubai", OffsetHours: 4, Label: "UAE"},
	{ID: "oman", IANA: "Asia/Muscat", OffsetHours: 4, Label: "Oman"},
	{ID: OperationsID, IANA: "Africa/Cairo", OffsetHours: 3, Label: "Egypt"},
}

// Registry is an immutable lookup table of descriptors. Build it once at
// startup and share it; it is safe for concurrent use.
type Registry struct {
	byID       map[string]Descriptor
	ordered    []Descriptor
	operations Descriptor
}

// NewRegistry loads every descriptor's IANA zone and verifies the operations
// zone is present.
func NewRegistry(operationsID string, descriptors ...Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		descriptors = DefaultDescriptors
	}
	operationsID = strings.ToLower(strings.TrimSpace(operationsID))
	if operationsID == "" {
		operationsID = OperationsID
	}

	r := &Registry{byID: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		id := strings.ToLower(strings.TrimSpace(d.ID))
		if id == "" {
			return nil, fmt.Errorf("timezone descriptor without id")
		}
		if _, dup := r.byID[id]; dup {
			return nil, fmt.Errorf("duplicate timezone %q", id)
		}
		if d.OffsetHours < -12 || d.OffsetHours > 14 {
			return nil, fmt.Errorf("timezone %q: offset %d out of range", id, d.OffsetHours)
		}
		loc, err := time.LoadLocation(d.IANA)
		if err != nil {
			return nil, fmt.Errorf("load location %s for %q: %w", d.IANA, id, err)
		}
		d.ID = id
		d.loc = loc
		r.byID[id] = d
		r.ordered = append(r.ordered, d)
	}

	ops, ok := r.byID[operationsID]
	if !ok {
		return nil, fmt.Errorf("operations timezone %q is not registered", operationsID)
	}
	r.operations = ops

	sort.SliceStable(r.ordered, func(i, j int) bool { return r.ordered[i].ID < r.ordered[j].ID })
	return r, nil
}

// DefaultRegistry builds the registry from DefaultDescriptors with Egypt as
// the operations zone.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(OperationsID, DefaultDescriptors...)
}

// MustDefaultRegistry panics when the default registry cannot be built.
func MustDefaultRegistry() *Registry {
	r, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the descriptor for id. Unknown ids are an error; callers
// must not fall back to a default zone.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	d, ok := r.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Descriptor{}, appErrors.Clone(appErrors.ErrInvalidTimezone, fmt.Sprintf("unknown timezone %q", id))
	}
	return d, nil
}

// Operations returns the operations descriptor.
func (r *Registry) Operations() Descriptor {
	return r.operations
}

// List returns all descriptors sorted by id.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}
