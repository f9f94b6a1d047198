package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/cloudlark/slackbase/internal/config"
	"github.com/cloudlark/slackbase/internal/repository"
)

// StatsCmd reports knowledge-base counts straight from the database, without
// needing a running daemon.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge-base statistics",
		Long:  "Show channel and thread counts directly from the database",
		Args:  cobra.NoArgs,
		RunE:  runStats,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	statsRepo := repository.NewStatsRepository(pool)
	stats, err := statsRepo.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"total_channels":          stats.TotalChannels,
			"channels_with_embedding": stats.ChannelsWithEmbedding,
			"total_threads":           stats.TotalThreads,
			"threads_with_embedding":  stats.ThreadsWithEmbedding,
			"threads_by_category":     stats.ThreadsByCategory,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Channels: %d (%d with embedding)\n", stats.TotalChannels, stats.ChannelsWithEmbedding)
	fmt.Printf("Threads:  %d (%d with embedding)\n", stats.TotalThreads, stats.ThreadsWithEmbedding)
	if len(stats.ThreadsByCategory) > 0 {
		fmt.Println("Threads by category:")
		categories := make([]string, 0, len(stats.ThreadsByCategory))
		for category := range stats.ThreadsByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("  %s: %d\n", category, stats.ThreadsByCategory[category])
		}
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
