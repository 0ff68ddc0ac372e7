// Package operators maps authenticated users to telephony agent identities.
package operators

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("operator not found")

// Operator is a CRM user with an optional telephony agent assignment.
// AgentID is nil for operators not provisioned on the call platform.
type Operator struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	AgentID     *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, display_name, agent_id, created_at, updated_at
		FROM operators
		WHERE user_id = $1
	`, userID).Scan(&op.ID, &op.UserID, &op.DisplayName, &op.AgentID, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operator{}, ErrNotFound
		}
		return Operator{}, err
	}

	return op, nil
}

// Upsert provisions or updates the operator row for a user.
func (r *Repository) Upsert(ctx context.Context, userID uuid.UUID, displayName string, agentID *string) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		INSERT INTO operators (user_id, display_name, agent_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, agent_id = EXCLUDED.agent_id, updated_at = now()
		RETURNING id, user_id, display_name, agent_id, created_at, updated_at
	`, userID, displayName, agentID).Scan(&op.ID, &op.UserID, &op.DisplayName, &op.AgentID, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return Operator{}, err
	}

	return op, nil
}
