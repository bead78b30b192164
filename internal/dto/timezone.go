package dto

// TimezoneItem describes one selectable client zone.
type TimezoneItem struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	IANA        string `json:"iana"`
	OffsetHours int    `json:"offset_hours"`
	Operations  bool   `json:"operations"`
}
