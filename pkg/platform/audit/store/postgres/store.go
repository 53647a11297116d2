// Package postgres persists audit events in an append-only table.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id         UUID PRIMARY KEY,
//	    user_id    UUID,
//	    username   TEXT NOT NULL DEFAULT '',
//	    action     TEXT NOT NULL,
//	    category   TEXT NOT NULL,
//	    reason     TEXT NOT NULL DEFAULT '',
//	    request_id TEXT NOT NULL DEFAULT '',
//	    device     TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX audit_events_user_idx ON audit_events (user_id, created_at DESC);
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "agegate/pkg/domain"
	audit "agegate/pkg/platform/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one audit event. The row id is generated here so retries
// after a network failure stay idempotent per event value.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	var userID any
	if !event.UserID.IsNil() {
		userID = uuid.UUID(event.UserID).String()
	}

	const query = `
		INSERT INTO audit_events (id, user_id, username, action, category, reason, request_id, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(),
		userID,
		event.Username,
		string(event.Action),
		string(event.Action.Category()),
		event.Reason,
		event.RequestID,
		event.Device,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	const query = `
		SELECT user_id, username, action, reason, request_id, device, created_at
		FROM audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(userID).String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	const query = `
		SELECT user_id, username, action, reason, request_id, device, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var event audit.Event
		var rawUserID sql.NullString
		var action string
		if err := rows.Scan(&rawUserID, &event.Username, &action, &event.Reason, &event.RequestID, &event.Device, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if rawUserID.Valid {
			userID, err := id.ParseUserID(rawUserID.String)
			if err != nil {
				return nil, fmt.Errorf("scan audit event user id: %w", err)
			}
			event.UserID = userID
		}
		event.Action = audit.Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
