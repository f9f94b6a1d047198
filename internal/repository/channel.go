package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChannelRepository persists channels and serves similarity search over their
// embeddings.
type ChannelRepository struct {
	db dbtx
}

func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{db: pool}
}

// Upsert inserts the channel or fully replaces the existing row with the same
// channel_id. Every descriptive field and the embedding are overwritten; this
// makes concurrent duplicate captures converge to the last writer's values.
// Returns the row's durable identifier.
func (r *ChannelRepository) Upsert(ctx context.Context, c *domain.Channel) (int64, error) {
	if err := domain.ValidateChannel(c); err != nil {
		return 0, err
	}

	var lastActivityAt *time.Time
	if !c.LastActivityAt.IsZero() {
		lastActivityAt = &c.LastActivityAt
	}

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO channels (
			channel_id, name, topic, purpose, is_private,
			channel_summary, channel_embedding, message_count,
			participant_count, last_activity_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (channel_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			topic = EXCLUDED.topic,
			purpose = EXCLUDED.purpose,
			is_private = EXCLUDED.is_private,
			channel_summary = EXCLUDED.channel_summary,
			channel_embedding = EXCLUDED.channel_embedding,
			message_count = EXCLUDED.message_count,
			participant_count = EXCLUDED.participant_count,
			last_activity_at = EXCLUDED.last_activity_at,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		c.ChannelID,
		nullableString(c.Name),
		nullableString(c.Topic),
		nullableString(c.Purpose),
		c.IsPrivate,
		nullableString(c.Summary),
		nullableVector(c.Embedding),
		c.MessageCount,
		c.ParticipantCount,
		lastActivityAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByChannelID returns the channel row, without its embedding column.
func (r *ChannelRepository) GetByChannelID(ctx context.Context, channelID string) (*domain.Channel, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, channel_id, name, topic, purpose, is_private, channel_summary,
		        message_count, participant_count, last_activity_at, created_at, updated_at
		 FROM channels WHERE channel_id = $1`,
		channelID,
	)

	c, err := scanChannel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChannelNotFound
		}
		return nil, err
	}
	return c, nil
}

// HasEmbedding reports whether the channel exists with a non-null embedding.
// Used as the capture idempotency check; reads committed state only.
func (r *ChannelRepository) HasEmbedding(ctx context.Context, channelID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM channels WHERE channel_id = $1 AND channel_embedding IS NOT NULL
		)`,
		channelID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Search returns channels whose embedding similarity to the query vector
// strictly exceeds threshold, ordered by descending similarity, truncated to
// limit. Similarity is 1 - cosine distance. Rows without an embedding never
// match.
func (r *ChannelRepository) Search(ctx context.Context, queryVector []float32, limit int, threshold float64) ([]domain.SearchResult, error) {
	vec := pgvector.NewVector(queryVector)

	rows, err := r.db.Query(ctx,
		`SELECT id, channel_id, name, topic, purpose, is_private, channel_summary,
		        message_count, participant_count, last_activity_at, created_at, updated_at,
		        1 - (channel_embedding <=> $1) AS similarity
		 FROM channels
		 WHERE channel_embedding IS NOT NULL
		   AND 1 - (channel_embedding <=> $1) > $2
		 ORDER BY channel_embedding <=> $1
		 LIMIT $3`,
		vec, threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var c domain.Channel
		var name, topic, purpose, summary *string
		var lastActivityAt *time.Time
		var similarity float64
		if err := rows.Scan(
			&c.ID, &c.ChannelID, &name, &topic, &purpose, &c.IsPrivate, &summary,
			&c.MessageCount, &c.ParticipantCount, &lastActivityAt, &c.CreatedAt, &c.UpdatedAt,
			&similarity,
		); err != nil {
			return nil, err
		}
		applyChannelNullables(&c, name, topic, purpose, summary, lastActivityAt)
		results = append(results, domain.SearchResult{
			Type:       domain.ResultTypeChannel,
			Similarity: similarity,
			Channel:    &c,
		})
	}
	return results, rows.Err()
}

// ListMissingEmbedding returns channels stored without an embedding but with a
// summary that can be re-embedded.
func (r *ChannelRepository) ListMissingEmbedding(ctx context.Context, limit int) ([]*domain.Channel, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, channel_id, name, topic, purpose, is_private, channel_summary,
		        message_count, participant_count, last_activity_at, created_at, updated_at
		 FROM channels
		 WHERE channel_embedding IS NULL
		   AND channel_summary IS NOT NULL
		 ORDER BY updated_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// UpdateEmbedding sets the embedding on an existing row without touching the
// descriptive fields.
func (r *ChannelRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE channels SET channel_embedding = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func scanChannel(row pgx.Row) (*domain.Channel, error) {
	var c domain.Channel
	var name, topic, purpose, summary *string
	var lastActivityAt *time.Time
	err := row.Scan(
		&c.ID, &c.ChannelID, &name, &topic, &purpose, &c.IsPrivate, &summary,
		&c.MessageCount, &c.ParticipantCount, &lastActivityAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	applyChannelNullables(&c, name, topic, purpose, summary, lastActivityAt)
	return &c, nil
}

func applyChannelNullables(c *domain.Channel, name, topic, purpose, summary *string, lastActivityAt *time.Time) {
	if name != nil {
		c.Name = *name
	}
	if topic != nil {
		c.Topic = *topic
	}
	if purpose != nil {
		c.Purpose = *purpose
	}
	if summary != nil {
		c.Summary = *summary
	}
	if lastActivityAt != nil {
		c.LastActivityAt = *lastActivityAt
	}
}
