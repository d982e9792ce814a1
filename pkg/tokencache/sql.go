package tokencache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/ssoflow/pkg/session"
)

// DefaultSweepSchedule removes expired rows every 15 minutes
const DefaultSweepSchedule = "*/15 * * * *"

// SQL is a token cache backed by PostgreSQL
type SQL struct {
	db *sql.DB
}

// NewSQL creates a PostgreSQL-backed token cache
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// EnsureSchema creates the backing table if it does not exist
func (s *SQL) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sso_tokens (
			application_id TEXT PRIMARY KEY,
			access_token   TEXT NOT NULL,
			expires_at     TIMESTAMPTZ NOT NULL,
			permissions    JSONB,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create sso_tokens table: %w", err)
	}
	return nil
}

// Load returns the cached token for applicationID, or (nil, nil) when no
// unexpired row exists
func (s *SQL) Load(ctx context.Context, applicationID string) (*session.CachedToken, error) {
	var (
		tok             session.CachedToken
		permissionsJSON []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT access_token, expires_at, permissions
		FROM sso_tokens
		WHERE application_id = $1 AND expires_at > NOW()
	`, applicationID).Scan(&tok.AccessToken, &tok.ExpiresAt, &permissionsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	if len(permissionsJSON) > 0 {
		if err := json.Unmarshal(permissionsJSON, &tok.Permissions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
		}
	}
	return &tok, nil
}

// Save upserts the token for applicationID
func (s *SQL) Save(ctx context.Context, applicationID string, token *session.CachedToken) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}

	var permissionsJSON []byte
	var err error
	if len(token.Permissions) > 0 {
		permissionsJSON, err = json.Marshal(token.Permissions)
		if err != nil {
			return fmt.Errorf("failed to marshal permissions: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sso_tokens (application_id, access_token, expires_at, permissions, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (application_id)
		DO UPDATE SET access_token = $2, expires_at = $3, permissions = $4, updated_at = NOW()
	`, applicationID, token.AccessToken, token.ExpiresAt, permissionsJSON)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear purges the persisted token for applicationID
func (s *SQL) Clear(ctx context.Context, applicationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sso_tokens WHERE application_id = $1`, applicationID)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// SweepExpired deletes rows whose token has expired, returning how many were
// removed
func (s *SQL) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sso_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("sweep expired tokens: %w", err)
	}
	return res.RowsAffected()
}

// StartSweeper schedules SweepExpired on the given cron expression and
// returns the running scheduler. Stop it with (*cron.Cron).Stop.
func (s *SQL) StartSweeper(schedule string, onError func(error)) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.SweepExpired(context.Background()); err != nil && onError != nil {
			onError(err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule token sweep: %w", err)
	}
	c.Start()
	return c, nil
}
