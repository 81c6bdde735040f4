package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/surgeseven/settlement/internal/apperrors"
	"github.com/surgeseven/settlement/internal/models"
)

type TrackerRepo struct {
	DB DBTX
}

func (r *TrackerRepo) CreateTruck(ctx context.Context, truck models.Truck) (models.Truck, error) {
	const createTruck = `-- name: CreateTruck
	INSERT INTO trucks (name, tracker_id)
	VALUES ($1, $2)
	RETURNING id, name, tracker_id
	`

	rows, _ := r.DB.Query(ctx, createTruck, truck.Name, truck.TrackerID)
	created, err := pgx.CollectOneRow(rows, rowToTruck)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *TrackerRepo) GetTruckByTrackerID(ctx context.Context, trackerID string) (models.Truck, error) {
	const getTruck = `-- name: GetTruckByTrackerID
	SELECT id, name, tracker_id FROM trucks
	WHERE tracker_id = $1
	`

	rows, _ := r.DB.Query(ctx, getTruck, trackerID)
	truck, err := pgx.CollectOneRow(rows, rowToTruck)

	switch {
	case err == nil:
		return truck, nil
	case errors.Is(err, pgx.ErrNoRows):
		return truck, apperrors.ErrTruckNotFound
	default:
		return truck, fmt.Errorf("db error: %w", err)
	}
}

func (r *TrackerRepo) GetSession(ctx context.Context, userID uuid.UUID) (models.TrackerSession, error) {
	const getSession = `-- name: GetTrackerSession
	SELECT user_id, token, refreshed_at FROM tracker_sessions
	WHERE user_id = $1
	`

	var s models.TrackerSession
	err := r.DB.QueryRow(ctx, getSession, userID).Scan(&s.UserID, &s.Token, &s.RefreshedAt)

	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, pgx.ErrNoRows):
		return s, apperrors.ErrSessionNotFound
	default:
		return s, fmt.Errorf("db error: %w", err)
	}
}

func (r *TrackerRepo) UpsertSession(ctx context.Context, session models.TrackerSession) error {
	const upsertSession = `-- name: UpsertTrackerSession
	INSERT INTO tracker_sessions (user_id, token, refreshed_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE SET token = $2, refreshed_at = $3
	`

	_, err := r.DB.Exec(ctx, upsertSession, session.UserID, session.Token, session.RefreshedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *TrackerRepo) UpsertSnapshot(ctx context.Context, snapshot models.TrackerSnapshot) error {
	const upsertSnapshot = `-- name: UpsertTrackerSnapshot
	INSERT INTO tracker_snapshots (
		truck_id, latitude, longitude, speed, moving, voltage, satellites, accuracy,
		course, altitude, status_text, alarm, alarm2, park_duration, acc_duration,
		last_updated, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now())
	ON CONFLICT (truck_id) DO UPDATE SET
		latitude = $2, longitude = $3, speed = $4, moving = $5, voltage = $6,
		satellites = $7, accuracy = $8, course = $9, altitude = $10, status_text = $11,
		alarm = $12, alarm2 = $13, park_duration = $14, acc_duration = $15,
		last_updated = $16, updated_at = now()
	`

	p := snapshot.Position
	_, err := r.DB.Exec(ctx, upsertSnapshot,
		snapshot.TruckID, p.Latitude, p.Longitude, p.Speed, p.Moving, p.Voltage,
		p.Satellites, p.Accuracy, p.Course, p.Altitude, p.StatusText,
		p.Alarm, p.Alarm2, p.ParkDuration, p.AccDuration, p.LastUpdated)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *TrackerRepo) GetSnapshot(ctx context.Context, truckID uuid.UUID) (models.TrackerSnapshot, error) {
	const getSnapshot = `-- name: GetTrackerSnapshot
	SELECT truck_id, latitude, longitude, speed, moving, voltage, satellites, accuracy,
		course, altitude, status_text, alarm, alarm2, park_duration, acc_duration,
		last_updated, updated_at
	FROM tracker_snapshots
	WHERE truck_id = $1
	`

	var s models.TrackerSnapshot
	p := &s.Position
	err := r.DB.QueryRow(ctx, getSnapshot, truckID).Scan(
		&s.TruckID, &p.Latitude, &p.Longitude, &p.Speed, &p.Moving, &p.Voltage,
		&p.Satellites, &p.Accuracy, &p.Course, &p.Altitude, &p.StatusText,
		&p.Alarm, &p.Alarm2, &p.ParkDuration, &p.AccDuration,
		&p.LastUpdated, &s.UpdatedAt)

	switch {
	case err == nil:
		if p.Moving {
			p.Status = models.TrackerStatusOnline
		} else {
			p.Status = models.TrackerStatusOffline
		}
		return s, nil
	case errors.Is(err, pgx.ErrNoRows):
		return s, apperrors.ErrNoPositionData
	default:
		return s, fmt.Errorf("db error: %w", err)
	}
}

func (r *TrackerRepo) AppendEvent(ctx context.Context, event models.TrackingEvent) (models.TrackingEvent, error) {
	const appendEvent = `-- name: AppendTrackingEvent
	INSERT INTO tracking_events (truck_id, event_type, latitude, longitude, speed, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, truck_id, event_type, latitude, longitude, speed, occurred_at
	`

	rows, _ := r.DB.Query(ctx, appendEvent,
		event.TruckID, event.EventType, event.Latitude, event.Longitude, event.Speed, event.OccurredAt)
	created, err := pgx.CollectOneRow(rows, rowToEvent)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

func (r *TrackerRepo) ListEvents(ctx context.Context, truckID uuid.UUID, limit int) ([]models.TrackingEvent, error) {
	const listEvents = `-- name: ListTrackingEvents
	SELECT id, truck_id, event_type, latitude, longitude, speed, occurred_at
	FROM tracking_events
	WHERE truck_id = $1
	ORDER BY occurred_at DESC
	LIMIT $2
	`

	rows, _ := r.DB.Query(ctx, listEvents, truckID, limit)
	events, err := pgx.CollectRows(rows, rowToEvent)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return events, nil
}

func rowToTruck(row pgx.CollectableRow) (models.Truck, error) {
	var t models.Truck
	err := row.Scan(&t.ID, &t.Name, &t.TrackerID)
	return t, err
}

func rowToEvent(row pgx.CollectableRow) (models.TrackingEvent, error) {
	var e models.TrackingEvent
	err := row.Scan(&e.ID, &e.TruckID, &e.EventType, &e.Latitude, &e.Longitude, &e.Speed, &e.OccurredAt)
	return e, err
}
