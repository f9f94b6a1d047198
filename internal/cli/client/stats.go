package client

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// StatsResponse represents the stats API response.
type StatsResponse struct {
	TotalChannels         int            `json:"total_channels"`
	ChannelsWithEmbedding int            `json:"channels_with_embedding"`
	TotalThreads          int            `json:"total_threads"`
	ThreadsWithEmbedding  int            `json:"threads_with_embedding"`
	ThreadsByCategory     map[string]int `json:"threads_by_category"`
}

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, outputJSON)
		},
	}
}

func runStats(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/stats")
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	var stats StatsResponse
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("failed to parse stats: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Channels: %d (%d with embeddings)\n", stats.TotalChannels, stats.ChannelsWithEmbedding)
	fmt.Printf("Threads:  %d (%d with embeddings)\n", stats.TotalThreads, stats.ThreadsWithEmbedding)

	if len(stats.ThreadsByCategory) > 0 {
		fmt.Println("\nThreads by category:")
		categories := make([]string, 0, len(stats.ThreadsByCategory))
		for category := range stats.ThreadsByCategory {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("  %-20s %d\n", category, stats.ThreadsByCategory[category])
		}
	}

	return nil
}
