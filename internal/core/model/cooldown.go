package model

import "time"

// NotificationCategory keys the per-category rate limiting of alerts.
type NotificationCategory string

const (
	CategoryDefault    NotificationCategory = "default"
	CategoryBatteryLow NotificationCategory = "battery_low"
	CategoryGpsError   NotificationCategory = "gps_error"
	CategoryProximity  NotificationCategory = "proximity_to_exit"
)

// NotificationCooldown remembers when an alert of a category was last
// actually emitted. It is only written on emission, never on a suppressed
// attempt.
type NotificationCooldown struct {
	Category   NotificationCategory `json:"category" bson:"category"`
	LastSentAt time.Time            `json:"lastSentAt" bson:"lastsentat"`
}
