// Package repository persists leads and their conversation logs in Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const leadColumns = `id, phone, name, status, source, ai_status, last_message_from,
		unread_count, chat, last_update, created_at, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Lead is a row in the leads table. Chat holds the raw jsonb conversation
// log; decoding it is the conversation package's concern.
type Lead struct {
	ID              uuid.UUID
	Phone           string
	Name            string
	Status          string
	Source          string
	AIStatus        string
	LastMessageFrom string
	UnreadCount     int
	Chat            []byte
	LastUpdate      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	Phone    string
	Name     string
	Status   string
	Source   string
	AIStatus string
	Chat     []byte
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone, name, status, source, ai_status, chat)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+leadColumns,
		params.Phone, params.Name, params.Status, params.Source, params.AIStatus, params.Chat,
	).Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Source, &lead.AIStatus,
		&lead.LastMessageFrom, &lead.UnreadCount, &lead.Chat, &lead.LastUpdate,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}

	return lead, nil
}

// GetByPhone returns the lead keyed by the given digits-only phone. When
// duplicate rows exist for a phone, the most recently updated one wins.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1
		ORDER BY last_update DESC
		LIMIT 1
	`, phone).Scan(
		&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Source, &lead.AIStatus,
		&lead.LastMessageFrom, &lead.UnreadCount, &lead.Chat, &lead.LastUpdate,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}

	return lead, nil
}

// List returns all leads ordered by conversation recency.
func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY last_update DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.Phone, &lead.Name, &lead.Status, &lead.Source, &lead.AIStatus,
			&lead.LastMessageFrom, &lead.UnreadCount, &lead.Chat, &lead.LastUpdate,
			&lead.CreatedAt, &lead.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// ConversationUpdate carries the full replacement state for a lead's
// conversation. The chat log is replaced wholesale, never patched.
type ConversationUpdate struct {
	Chat            []byte
	UnreadCount     int
	LastMessageFrom string
	LastUpdate      time.Time
}

func (r *Repository) ReplaceConversation(ctx context.Context, id uuid.UUID, update ConversationUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET chat = $2, unread_count = $3, last_message_from = $4, last_update = $5, updated_at = now()
		WHERE id = $1
	`, id, update.Chat, update.UnreadCount, update.LastMessageFrom, update.LastUpdate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) SetAIStatus(ctx context.Context, id uuid.UUID, aiStatus string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET ai_status = $2, updated_at = now() WHERE id = $1
	`, id, aiStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ResetUnread zeroes the unread counter when an operator opens the chat.
func (r *Repository) ResetUnread(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET unread_count = 0, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
