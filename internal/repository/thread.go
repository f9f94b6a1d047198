package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/cloudlark/slackbase/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const threadColumns = `id, channel_id, thread_ts, root_user_id, root_username, root_message,
	thread_summary, reply_count, participant_count, last_reply_at, category, status,
	created_at, updated_at`

// ThreadRepository persists threads and serves similarity search over their
// embeddings.
type ThreadRepository struct {
	db dbtx
}

func NewThreadRepository(pool *pgxpool.Pool) *ThreadRepository {
	return &ThreadRepository{db: pool}
}

// Upsert inserts the thread or fully replaces the existing row keyed by
// (channel_id, thread_ts). An empty status is coerced to "active". Returns
// the row's durable identifier. The parent channel row must exist; the FK
// cascades deletes from channels to threads.
func (r *ThreadRepository) Upsert(ctx context.Context, t *domain.Thread) (int64, error) {
	if err := domain.ValidateThread(t); err != nil {
		return 0, err
	}

	status := t.Status
	if status == "" {
		status = domain.ThreadStatusActive
	}

	var lastReplyAt *time.Time
	if !t.LastReplyAt.IsZero() {
		lastReplyAt = &t.LastReplyAt
	}

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO threads (
			channel_id, thread_ts, root_user_id, root_username, root_message,
			thread_summary, thread_embedding, reply_count, participant_count,
			last_reply_at, category, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (channel_id, thread_ts)
		DO UPDATE SET
			root_user_id = EXCLUDED.root_user_id,
			root_username = EXCLUDED.root_username,
			root_message = EXCLUDED.root_message,
			thread_summary = EXCLUDED.thread_summary,
			thread_embedding = EXCLUDED.thread_embedding,
			reply_count = EXCLUDED.reply_count,
			participant_count = EXCLUDED.participant_count,
			last_reply_at = EXCLUDED.last_reply_at,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		t.ChannelID,
		t.ThreadTS,
		nullableString(t.RootUserID),
		nullableString(t.RootUsername),
		nullableString(t.RootMessage),
		nullableString(t.Summary),
		nullableVector(t.Embedding),
		t.ReplyCount,
		t.ParticipantCount,
		lastReplyAt,
		nullableString(t.Category),
		status,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the thread row, without its embedding column.
func (r *ThreadRepository) Get(ctx context.Context, channelID, threadTS string) (*domain.Thread, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE channel_id = $1 AND thread_ts = $2`,
		channelID, threadTS,
	)

	t, err := scanThread(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, err
	}
	return t, nil
}

// HasEmbedding reports whether the thread exists with a non-null embedding.
func (r *ThreadRepository) HasEmbedding(ctx context.Context, channelID, threadTS string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM threads
			WHERE channel_id = $1 AND thread_ts = $2 AND thread_embedding IS NOT NULL
		)`,
		channelID, threadTS,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Search returns threads above the similarity threshold, ordered by
// descending similarity, truncated to limit. A non-empty channelID restricts
// candidates to that channel.
func (r *ThreadRepository) Search(ctx context.Context, queryVector []float32, channelID string, limit int, threshold float64) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(queryVector)

	query := `SELECT ` + threadColumns + `,
		        1 - (thread_embedding <=> $1) AS similarity
		 FROM threads
		 WHERE thread_embedding IS NOT NULL
		   AND 1 - (thread_embedding <=> $1) > $2`
	args := []any{vec, threshold}

	if channelID != "" {
		query += ` AND channel_id = $3 ORDER BY thread_embedding <=> $1 LIMIT $4`
		args = append(args, channelID, limit)
	} else {
		query += ` ORDER BY thread_embedding <=> $1 LIMIT $3`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var t domain.Thread
		var rootUserID, rootUsername, rootMessage, summary, category *string
		var lastReplyAt *time.Time
		var similarity float64
		if err := rows.Scan(
			&t.ID, &t.ChannelID, &t.ThreadTS, &rootUserID, &rootUsername, &rootMessage,
			&summary, &t.ReplyCount, &t.ParticipantCount, &lastReplyAt, &category, &t.Status,
			&t.CreatedAt, &t.UpdatedAt,
			&similarity,
		); err != nil {
			return nil, err
		}
		applyThreadNullables(&t, rootUserID, rootUsername, rootMessage, summary, category, lastReplyAt)
		results = append(results, domain.SearchResult{
			Type:       domain.ResultTypeThread,
			Similarity: similarity,
			Thread:     &t,
		})
	}
	return results, rows.Err()
}

// ListByCategoryWithCursor lists threads, newest first, optionally filtered to
// one category, with keyset pagination over (updated_at, id).
func (r *ThreadRepository) ListByCategoryWithCursor(ctx context.Context, category string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.Thread], error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + threadColumns + ` FROM threads`
	var args []any
	var conds []string

	if category != "" {
		args = append(args, category)
		conds = append(conds, "category = $1")
	}
	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		conds = append(conds, fmt.Sprintf("(updated_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY updated_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.UpdatedAt)
	}

	return &pagination.PageResult[*domain.Thread]{
		Items:   items,
		Cursor:  nextCursor,
		HasMore: hasMore,
	}, nil
}

// ListMissingEmbedding returns threads stored without an embedding but with a
// summary that can be re-embedded.
func (r *ThreadRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.Thread, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+threadColumns+`
		 FROM threads
		 WHERE thread_embedding IS NULL
		   AND thread_summary IS NOT NULL
		 ORDER BY updated_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []*domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

// UpdateEmbedding sets the embedding on an existing row without touching the
// descriptive fields.
func (r *ThreadRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE threads SET thread_embedding = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrThreadNotFound
	}
	return nil
}

func scanThread(row pgx.Row) (*domain.Thread, error) {
	var t domain.Thread
	var rootUserID, rootUsername, rootMessage, summary, category *string
	var lastReplyAt *time.Time
	err := row.Scan(
		&t.ID, &t.ChannelID, &t.ThreadTS, &rootUserID, &rootUsername, &rootMessage,
		&summary, &t.ReplyCount, &t.ParticipantCount, &lastReplyAt, &category, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	applyThreadNullables(&t, rootUserID, rootUsername, rootMessage, summary, category, lastReplyAt)
	return &t, nil
}

func applyThreadNullables(t *domain.Thread, rootUserID, rootUsername, rootMessage, summary, category *string, lastReplyAt *time.Time) {
	if rootUserID != nil {
		t.RootUserID = *rootUserID
	}
	if rootUsername != nil {
		t.RootUsername = *rootUsername
	}
	if rootMessage != nil {
		t.RootMessage = *rootMessage
	}
	if summary != nil {
		t.Summary = *summary
	}
	if category != nil {
		t.Category = *category
	}
	if lastReplyAt != nil {
		t.LastReplyAt = *lastReplyAt
	}
}

