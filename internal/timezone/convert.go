package timezone

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/tutor-booking-api/pkg/errors"
)

const (
	// DateLayout is the calendar-date wire format.
	DateLayout = "2006-01-02"
	// SlotMinutes is the fixed length of every bookable slot.
	SlotMinutes = 30
)

// Conversion is the result of moving a client-local hour into UTC.
type Conversion struct {
	LocalDate time.Time `json:"local_date"`
	LocalHour int       `json:"local_hour"`
	UTCDate   time.Time `json:"utc_date"`
	UTCHour   int       `json:"utc_hour"`
	// DayShift is +1 when the UTC instant falls on the day after LocalDate,
	// -1 when it falls on the day before.
	DayShift int `json:"day_shift"`
}

// ShiftOffset converts a whole local hour to UTC for a fixed offset and
// reports how many days the conversion crossed.
func ShiftOffset(localHour, offsetHours int) (utcHour, dayShift int) {
	utcHour = localHour - offsetHours
	for utcHour < 0 {
		utcHour += 24
		dayShift--
	}
	for utcHour >= 24 {
		utcHour -= 24
		dayShift++
	}
	return utcHour, dayShift
}

// ConvertLocalHour converts a client-local date and whole hour in the zone
// identified by id into the UTC hour and the UTC date that must be queried.
func (r *Registry) ConvertLocalHour(date time.Time, localHour int, id string) (Conversion, error) {
	d, err := r.Lookup(id)
	if err != nil {
		return Conversion{}, err
	}
	return Convert(date, localHour, d)
}

// Convert is ConvertLocalHour for an already resolved descriptor.
func Convert(date time.Time, localHour int, d Descriptor) (Conversion, error) {
	if localHour < 0 || localHour > 23 {
		return Conversion{}, appErrors.Clone(appErrors.ErrInvalidSearchParameters, fmt.Sprintf("hour %d outside 0-23", localHour))
	}
	day := DateOnly(date)
	utcHour, shift := ShiftOffset(localHour, d.OffsetHours)
	return Conversion{
		LocalDate: day,
		LocalHour: localHour,
		UTCDate:   day.AddDate(0, 0, shift),
		UTCHour:   utcHour,
		DayShift:  shift,
	}, nil
}

// LocalToUTC moves a half-hour slot on a local calendar date into the UTC
// date and slot. The zone's IANA rules apply, so the result follows DST.
func LocalToUTC(date time.Time, slot string, d Descriptor) (time.Time, string, error) {
	minutes, err := ParseSlot(slot)
	if err != nil {
		return time.Time{}, "", err
	}
	y, m, day := date.Date()
	instant := time.Date(y, m, day, 0, minutes, 0, 0, d.Location()).UTC()
	return DateOnly(instant), clockSlot(instant), nil
}

// UTCToLocal is the inverse of LocalToUTC.
func UTCToLocal(date time.Time, slot string, d Descriptor) (time.Time, string, error) {
	instant, err := SlotInstant(date, slot)
	if err != nil {
		return time.Time{}, "", err
	}
	local := instant.In(d.Location())
	return DateOnly(local), clockSlot(local), nil
}

func clockSlot(t time.Time) string {
	return FormatSlot(t.Hour()*60 + t.Minute())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidSearchParameters.Code, appErrors.ErrInvalidSearchParameters.Status, fmt.Sprintf("malformed date %q", raw))
	}
	return t, nil
}

// DateOnly truncates t to its calendar date at UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseSlot parses "HH:MM" (or the "HH:MM:SS" a TIME column returns) into
// minutes after midnight. Only the 30-minute grid is accepted.
func ParseSlot(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, invalidSlot(raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, invalidSlot(raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || (minute != 0 && minute != SlotMinutes) {
		return 0, invalidSlot(raw)
	}
	if len(parts) == 3 {
		if sec, err := strconv.Atoi(parts[2]); err != nil || sec != 0 {
			return 0, invalidSlot(raw)
		}
	}
	return hour*60 + minute, nil
}

// NormalizeSlot returns the canonical "HH:MM" form of a slot value.
func NormalizeSlot(raw string) (string, error) {
	minutes, err := ParseSlot(raw)
	if err != nil {
		return "", err
	}
	return FormatSlot(minutes), nil
}

// FormatSlot renders minutes after midnight as "HH:MM". 1440 renders as
// "24:00", the exclusive end of a day.
func FormatSlot(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotInstant combines a UTC date and "HH:MM" slot into an instant.
func SlotInstant(date time.Time, slot string) (time.Time, error) {
	minutes, err := ParseSlot(slot)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(date).Add(time.Duration(minutes) * time.Minute), nil
}

func invalidSlot(raw string) error {
	return appErrors.Clone(appErrors.ErrInvalidSearchParameters, fmt.Sprintf("time %q is not on the 30-minute grid", raw))
}
