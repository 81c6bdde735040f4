package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TrackerStatusOnline  = "online"
	TrackerStatusOffline = "offline"

	TrackingEventPositionUpdate = "position_update"
)

type Truck struct {
	ID        uuid.UUID
	Name      string
	TrackerID string
}

// TrackerSession is the per-user provider token. One row per user,
// superseded on refresh.
type TrackerSession struct {
	UserID      uuid.UUID
	Token       string
	RefreshedAt time.Time
}

// Position is a normalized tracker record. LastUpdated is nil when the
// provider sent a missing or unparseable timestamp.
type Position struct {
	Latitude     float64
	Longitude    float64
	Speed        float64
	LastUpdated  *time.Time
	Status       string
	Moving       bool
	Voltage      *float64
	Satellites   *int
	Accuracy     float64
	Course       *float64
	Altitude     float64
	StatusText   string
	Alarm        int
	Alarm2       int
	ParkDuration int64
	AccDuration  int64
}

// TrackerSnapshot is the truck's tracker-state-of-record.
type TrackerSnapshot struct {
	TruckID   uuid.UUID
	Position  Position
	UpdatedAt time.Time
}

type TrackingEvent struct {
	ID         uuid.UUID
	TruckID    uuid.UUID
	EventType  string
	Latitude   float64
	Longitude  float64
	Speed      float64
	OccurredAt time.Time
}
