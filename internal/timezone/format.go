package timezone

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

const (
	clockLayout = "3:04 PM"
	dayLayout   = "Monday, Jan 2"
)

// SlotDisplay holds the human strings for one slot in the client zone and in
// the operations zone.
type SlotDisplay struct {
	Client        string `json:"client"`
	ClientDay     string `json:"client_day"`
	Operations    string `json:"operations"`
	OperationsDay string `json:"operations_day"`
}

// FormatRange renders "4:00 PM-4:30 PM" for the wall clock of loc.
func FormatRange(start, end time.Time, loc *time.Location) string {
	return start.In(loc).Format(clockLayout) + "-" + end.In(loc).Format(clockLayout)
}

// FormatSlotRange renders the slot range in the descriptor's zone using IANA
// rules.
func FormatSlotRange(start, end time.Time, d Descriptor) string {
	return FormatRange(start, end, d.Location())
}

// FormatOperationsRange renders the range in the operations zone, suffixed
// with the zone label so it reads as the reference time.
func FormatOperationsRange(start, end time.Time, ops Descriptor) string {
	return fmt.Sprintf("%s (%s)", FormatRange(start, end, ops.Location()), ops.Label)
}

// FormatDay renders the wall-clock day of t in the descriptor's zone.
func FormatDay(t time.Time, d Descriptor) string {
	return t.In(d.Location()).Format(dayLayout)
}

// Display builds both display strings for a slot starting at start.
func (r *Registry) Display(start time.Time, client Descriptor) SlotDisplay {
	end := start.Add(SlotMinutes * time.Minute)
	return SlotDisplay{
		Client:        FormatSlotRange(start, end, client),
		ClientDay:     FormatDay(start, client),
		Operations:    FormatOperationsRange(start, end, r.operations),
		OperationsDay: FormatDay(start, r.operations),
	}
}

// ParseDisplayTime reads a "3:04 PM" wall-clock string on the given local date
// back into a UTC instant with the same IANA rules the display used.
func ParseDisplayTime(localDate time.Time, display string, d Descriptor) (time.Time, error) {
	display = strings.TrimSpace(display)
	if i := strings.Index(display, "-"); i >= 0 {
		display = display[:i]
	}
	clock, err := time.Parse(clockLayout, display)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidSearchParameters.Code, appErrors.ErrInvalidSearchParameters.Status, fmt.Sprintf("malformed time %q", display))
	}
	y, m, day := localDate.Date()
	local := time.Date(y, m, day, clock.Hour(), clock.Minute(), 0, 0, d.Location())
	return local.UTC(), nil
}
