package repository

import (
	"context"

	"github.com/cloudlark/slackbase/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository aggregates counts over the knowledge base.
type StatsRepository struct {
	db dbtx
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: pool}
}

// Stats returns total and embedded counts per entity type plus a per-category
// thread count. Only non-null categories are counted.
func (r *StatsRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{
		ThreadsByCategory: make(map[string]int),
	}

	err := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM channels),
			(SELECT COUNT(*) FROM channels WHERE channel_embedding IS NOT NULL),
			(SELECT COUNT(*) FROM threads),
			(SELECT COUNT(*) FROM threads WHERE thread_embedding IS NOT NULL)`,
	).Scan(
		&stats.TotalChannels,
		&stats.ChannelsWithEmbedding,
		&stats.TotalThreads,
		&stats.ThreadsWithEmbedding,
	)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT category, COUNT(*) FROM threads WHERE category IS NOT NULL GROUP BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ThreadsByCategory[category] = count
	}
	return stats, rows.Err()
}
