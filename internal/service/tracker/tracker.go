// Package tracker integrates the GPS tracking provider: token sessions,
// position normalization and caching, and relay commands.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/gateway/itrack"
	"github.com/surgeseven/settlement/internal/logger"
	"github.com/surgeseven/settlement/internal/models"
	"github.com/surgeseven/settlement/internal/repository"
)

const (
	// Provider tokens are good for 24 hours; refresh an hour early
	tokenTTL = 23 * time.Hour

	// Bounds call volume to the provider per tracker
	positionCacheTTL = 30 * time.Second

	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

type providerClient interface {
	Login(ctx context.Context) (string, error)
	LastPosition(ctx context.Context, token string, deviceID string) (itrack.Record, error)
	SendCommand(ctx context.Context, token string, deviceID string, cmdCode string, params []string) error
}

type Service struct {
	client  providerClient
	storage repository.Storage
	cache   *snapshotCache
	now     func() time.Time
	logger  logger.Logger
}

func NewService(client providerClient, storage repository.Storage, l logger.Logger) *Service {
	now := time.Now

	return &Service{
		client:  client,
		storage: storage,
		cache:   newSnapshotCache(positionCacheTTL, now),
		now:     now,
		logger:  l,
	}
}

// Token returns the user's session token, reusing the stored one while it is
// inside the validity window and logging in exactly once otherwise. The new
// token supersedes the old row; there is never more than one session per user.
func (s *Service) Token(ctx context.Context, userID uuid.UUID) (string, error) {
	session, err := s.storage.Tracker().GetSession(ctx, userID)
	if err == nil && s.now().Sub(session.RefreshedAt) < tokenTTL {
		return session.Token, nil
	}

	token, err := s.client.Login(ctx)
	if err != nil {
		return "", err
	}

	err = s.storage.Tracker().UpsertSession(ctx, models.TrackerSession{
		UserID:      userID,
		Token:       token,
		RefreshedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("store tracker session: %w", err)
	}

	return token, nil
}

// View is what a caller sees for one tracker. Staff-only fields are nil for
// regular callers; the projection never touches the stored snapshot.
type View struct {
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Speed       float64    `json:"speed"`
	LastUpdated *time.Time `json:"last_updated"`
	Status      string     `json:"status"`

	Moving       *bool    `json:"moving,omitempty"`
	Voltage      *float64 `json:"voltage,omitempty"`
	Satellites   *int     `json:"gps_satellites,omitempty"`
	Accuracy     *float64 `json:"accuracy,omitempty"`
	Course       *float64 `json:"course,omitempty"`
	Altitude     *float64 `json:"altitude,omitempty"`
	StatusText   *string  `json:"strstatus,omitempty"`
	Alarm        *int     `json:"alarm,omitempty"`
	Alarm2       *int     `json:"alarm2,omitempty"`
	ParkDuration *int64   `json:"park_duration,omitempty"`
	AccDuration  *int64   `json:"acc_duration,omitempty"`
}

// Project redacts a canonical position for the caller's privilege.
func Project(p models.Position, staff bool) View {
	v := View{
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Speed:       p.Speed,
		LastUpdated: p.LastUpdated,
		Status:      p.Status,
	}

	if !staff {
		return v
	}

	v.Moving = &p.Moving
	v.Voltage = p.Voltage
	v.Satellites = p.Satellites
	v.Accuracy = &p.Accuracy
	v.Course = p.Course
	v.Altitude = &p.Altitude
	v.StatusText = &p.StatusText
	v.Alarm = &p.Alarm
	v.Alarm2 = &p.Alarm2
	v.ParkDuration = &p.ParkDuration
	v.AccDuration = &p.AccDuration

	return v
}

// Position returns the tracker's latest position, served from the cache when
// fresh. On a miss it authenticates, fetches and normalizes the provider
// record, persists the snapshot, appends to the event log and caches the
// canonical result before projecting it for the caller.
func (s *Service) Position(ctx context.Context, trackerID string, user models.User) (View, error) {
	if pos, ok := s.cache.get(trackerID); ok {
		return Project(pos, user.Staff), nil
	}

	truck, err := s.storage.Tracker().GetTruckByTrackerID(ctx, trackerID)
	if err != nil {
		return View{}, err
	}

	token, err := s.Token(ctx, user.ID)
	if err != nil {
		return View{}, err
	}

	record, err := s.client.LastPosition(ctx, token, trackerID)
	if err != nil {
		return View{}, err
	}

	pos, err := normalize(record)
	if err != nil {
		return View{}, err
	}

	err = s.storage.InTx(ctx, func(tx repository.Storage) error {
		err := tx.Tracker().UpsertSnapshot(ctx, models.TrackerSnapshot{
			TruckID:  truck.ID,
			Position: pos,
		})
		if err != nil {
			return err
		}

		occurredAt := s.now()
		if pos.LastUpdated != nil {
			occurredAt = *pos.LastUpdated
		}

		_, err = tx.Tracker().AppendEvent(ctx, models.TrackingEvent{
			TruckID:    truck.ID,
			EventType:  models.TrackingEventPositionUpdate,
			Latitude:   pos.Latitude,
			Longitude:  pos.Longitude,
			Speed:      pos.Speed,
			OccurredAt: occurredAt,
		})
		return err
	})
	if err != nil {
		return View{}, fmt.Errorf("persist tracker snapshot: %w", err)
	}

	s.cache.put(trackerID, pos)

	return Project(pos, user.Staff), nil
}

// Command sends a relay action to the tracker. Unknown actions are rejected
// before any network call.
func (s *Service) Command(ctx context.Context, trackerID string, user models.User, action string) error {
	var params []string
	switch action {
	case ActionLock:
		params = []string{"1"}
	case ActionUnlock:
		params = []string{"0"}
	default:
		return apperrors.ErrInvalidAction
	}

	token, err := s.Token(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.client.SendCommand(ctx, token, trackerID, itrack.CmdSetRelayOil, params); err != nil {
		return err
	}

	s.logger.Info("Tracker command confirmed", "tracker_id", trackerID, "action", action)
	return nil
}

// normalize maps a raw provider record to the canonical position. Both
// coordinates are required; a missing or unparseable timestamp becomes nil
// rather than an error.
func normalize(r itrack.Record) (models.Position, error) {
	var pos models.Position

	lat := firstFloat(r.CalLat, r.Latitude)
	lon := firstFloat(r.CalLon, r.Longitude)
	if lat == nil || lon == nil {
		return pos, apperrors.ErrInvalidPositionData
	}

	pos.Latitude = *lat
	pos.Longitude = *lon
	pos.Speed = r.Speed
	pos.LastUpdated = millisToTime(firstInt64(r.UpdateTime, r.ArrivedTime))
	pos.Moving = r.Moving == 1
	if pos.Moving {
		pos.Status = models.TrackerStatusOnline
	} else {
		pos.Status = models.TrackerStatusOffline
	}
	pos.Voltage = r.Voltage
	pos.Satellites = r.Satellites
	pos.Accuracy = r.Radius
	pos.Course = r.Course
	pos.Altitude = r.Altitude
	pos.StatusText = r.StrStatus
	pos.Alarm = r.Alarm
	pos.Alarm2 = r.Alarm2
	pos.ParkDuration = r.ParkDur
	pos.AccDuration = r.AccDur

	return pos, nil
}

func millisToTime(ms *int64) *time.Time {
	if ms == nil || *ms <= 0 {
		return nil
	}

	t := time.UnixMilli(*ms)
	return &t
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt64(values ...*int64) *int64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
