package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cumbre/internal/errors"
)

// StoredToken is the persisted bearer token of one browser session.
type StoredToken struct {
	SessionID string
	Token     string
	UserID    int
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MySQLTokenRepository struct {
	db *sql.DB
}

func NewMySQLTokenRepository(db *sql.DB) *MySQLTokenRepository {
	return &MySQLTokenRepository{db: db}
}

func (r *MySQLTokenRepository) Save(ctx context.Context, token StoredToken) error {
	query := `
		INSERT INTO SessionTokens (sessionId, token, userId, expiresAt)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE token = VALUES(token), userId = VALUES(userId), expiresAt = VALUES(expiresAt)
	`

	_, err := r.db.ExecContext(ctx, query, token.SessionID, token.Token, token.UserID, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}
	return nil
}

func (r *MySQLTokenRepository) FindBySessionID(ctx context.Context, sessionID string) (*StoredToken, error) {
	query := `
		SELECT sessionId, token, userId, expiresAt, createdAt, updatedAt
		FROM SessionTokens
		WHERE sessionId = ?
	`

	var st StoredToken
	var expiresAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&st.SessionID, &st.Token, &st.UserID, &expiresAt, &st.CreatedAt, &st.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("session token for session %s not found", sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying session token: %w", err)
	}

	if expiresAt.Valid {
		st.ExpiresAt = &expiresAt.Time
	}
	return &st, nil
}

func (r *MySQLTokenRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM SessionTokens WHERE sessionId = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("deleting session token: %w", err)
	}
	return nil
}

// DeleteExpired removes tokens whose expiry is before now and returns how many
// rows were removed.
func (r *MySQLTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM SessionTokens WHERE expiresAt IS NOT NULL AND expiresAt < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired session tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return rows, nil
}
