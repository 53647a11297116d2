package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"agegate/internal/account/models"
	id "agegate/pkg/domain"
	"agegate/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore persists user records in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE users (
//	    id                  UUID PRIMARY KEY,
//	    username            TEXT NOT NULL,
//	    normalized_username TEXT NOT NULL UNIQUE,
//	    email               TEXT NOT NULL UNIQUE,
//	    birth_date          DATE NOT NULL,
//	    password_hash       TEXT NOT NULL,
//	    created_at          TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, normalized_username, email, birth_date, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID.String(), user.Username, user.NormalizedUsername, user.Email,
		user.BirthDate, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, normalized_username, email, birth_date, password_hash, created_at
		FROM users WHERE id = $1`,
		userID.String(),
	)
	return scanUser(row.Scan)
}

// FindByNormalizedUsername resolves the canonical record for a login name.
// If the table somehow holds more than one candidate the lookup fails with
// sentinel.ErrAmbiguous rather than silently returning the first match.
func (s *PostgresStore) FindByNormalizedUsername(ctx context.Context, normalized string) (*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, normalized_username, email, birth_date, password_hash, created_at
		FROM users WHERE normalized_username = $1 LIMIT 2`,
		normalized,
	)
	if err != nil {
		return nil, fmt.Errorf("query user by username: %w", err)
	}
	defer rows.Close()

	var user *models.User
	for rows.Next() {
		if user != nil {
			return nil, sentinel.ErrAmbiguous
		}
		user, err = scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	if user == nil {
		return nil, sentinel.ErrNotFound
	}
	return user, nil
}

func scanUser(scan func(dest ...any) error) (*models.User, error) {
	var (
		user  models.User
		rawID string
	)
	err := scan(&rawID, &user.Username, &user.NormalizedUsername, &user.Email,
		&user.BirthDate, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse stored user id: %w", err)
	}
	user.ID = userID
	return &user, nil
}
