package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// MessageRepository stores conversation messages keyed by owning client.
type MessageRepository interface {
	// Append assigns the next position in the owner's conversation and
	// persists the message unread.
	Append(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	// ListAfter returns up to limit messages with position > cursor, ascending.
	ListAfter(ctx context.Context, ownerID string, cursor int64, limit int) ([]domain.Message, error)
	// ListLatest returns the newest limit messages, ascending.
	ListLatest(ctx context.Context, ownerID string, limit int) ([]domain.Message, error)
	// MarkRead sets the read flag and reports whether it changed.
	MarkRead(ctx context.Context, id string) (bool, error)
	ListOwners(ctx context.Context) ([]string, error)
	// Stats aggregates per owner; unread counts only client-sent messages.
	Stats(ctx context.Context, ownerIDs []string) ([]domain.ConversationStats, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

const messageColumns = `id, owner_id, from_admin, body, position, read, created_at`

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The sequence row stays locked until commit, so positions become
	// visible in order.
	const nextPosition = `
        INSERT INTO conversation_sequences (owner_id, last_position) VALUES ($1, 1)
        ON CONFLICT (owner_id) DO UPDATE SET last_position = conversation_sequences.last_position + 1
        RETURNING last_position`
	if err := tx.QueryRow(ctx, nextPosition, msg.OwnerID).Scan(&msg.Position); err != nil {
		return err
	}

	const insert = `
        INSERT INTO chat_messages (owner_id, from_admin, body, position, read, created_at)
        VALUES ($1,$2,$3,$4,FALSE,clock_timestamp())
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert,
		msg.OwnerID,
		msg.FromAdmin,
		msg.Body,
		msg.Position,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return err
	}
	msg.Read = false
	return tx.Commit(ctx)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE id=$1`
	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return msg, nil
}

func (r *messageRepository) ListAfter(ctx context.Context, ownerID string, cursor int64, limit int) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + `
        FROM chat_messages WHERE owner_id=$1 AND position > $2
        ORDER BY position ASC LIMIT $3`
	return r.query(ctx, query, ownerID, cursor, limit)
}

func (r *messageRepository) ListLatest(ctx context.Context, ownerID string, limit int) ([]domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM (
            SELECT ` + messageColumns + ` FROM chat_messages WHERE owner_id=$1
            ORDER BY position DESC LIMIT $2
        ) latest ORDER BY position ASC`
	return r.query(ctx, query, ownerID, limit)
}

func (r *messageRepository) query(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) MarkRead(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `UPDATE chat_messages SET read=TRUE WHERE id=$1 AND read=FALSE`, id)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM chat_messages WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *messageRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT owner_id FROM conversation_sequences ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owners := []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (r *messageRepository) Stats(ctx context.Context, ownerIDs []string) ([]domain.ConversationStats, error) {
	base := `
        SELECT owner_id, COUNT(*), COUNT(*) FILTER (WHERE NOT read AND NOT from_admin), MAX(created_at)
        FROM chat_messages`
	args := []any{}
	clauses := []string{}
	if ownerIDs != nil {
		args = append(args, ownerIDs)
		clauses = append(clauses, fmt.Sprintf("owner_id = ANY($%d::uuid[])", len(args)))
	}
	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " GROUP BY owner_id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.ConversationStats{}
	for rows.Next() {
		var stats domain.ConversationStats
		if err := rows.Scan(&stats.OwnerID, &stats.MessageCount, &stats.UnreadCount, &stats.LastActivityAt); err != nil {
			return nil, err
		}
		result = append(result, stats)
	}
	return result, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	if err := row.Scan(
		&msg.ID,
		&msg.OwnerID,
		&msg.FromAdmin,
		&msg.Body,
		&msg.Position,
		&msg.Read,
		&msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}
