package model

import (
	"time"

	"trackmate/internal/core/util"
)

// BatteryUnknown marks a fix whose reply carried no readable battery field.
const BatteryUnknown = -1

// Fix is one reported locator reading. Fixes are append-only: they are never
// updated, only inserted and bulk-deleted.
type Fix struct {
	ID             string    `json:"id" bson:"id"`
	UserID         string    `json:"userId" bson:"userid"`
	Latitude       float64   `json:"latitude" bson:"latitude"`
	Longitude      float64   `json:"longitude" bson:"longitude"`
	BatteryPercent int       `json:"batteryPercent" bson:"batterypercent"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
}

func NewFix(userID string, lat, lng float64, batteryPercent int) *Fix {
	return &Fix{
		ID:             util.GenerateID(),
		UserID:         userID,
		Latitude:       lat,
		Longitude:      lng,
		BatteryPercent: batteryPercent,
		Timestamp:      time.Now().UTC(),
	}
}
