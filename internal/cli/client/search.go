package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query     string  `json:"query"`
	Type      string  `json:"type,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	ChannelID string  `json:"channel_id,omitempty"`
}

// SearchResultChannel is the channel payload of a search hit.
type SearchResultChannel struct {
	ChannelID        string `json:"channel_id"`
	Name             string `json:"name"`
	Summary          string `json:"summary,omitempty"`
	MessageCount     int    `json:"message_count"`
	ParticipantCount int    `json:"participant_count"`
}

// SearchResultThread is the thread payload of a search hit.
type SearchResultThread struct {
	ChannelID        string `json:"channel_id"`
	ThreadTS         string `json:"thread_ts"`
	RootMessage      string `json:"root_message,omitempty"`
	Category         string `json:"category,omitempty"`
	ReplyCount       int    `json:"reply_count"`
	ParticipantCount int    `json:"participant_count"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Type       string               `json:"type"`
	Similarity float64              `json:"similarity"`
	Channel    *SearchResultChannel `json:"channel,omitempty"`
	Thread     *SearchResultThread  `json:"thread,omitempty"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		scope     string
		limit     int
		threshold float64
		channelID string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  "Searches indexed channels and threads using semantic similarity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], scope, limit, threshold, channelID, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&scope, "type", "t", "all", "Search scope: all, channels or threads")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 uses the server default)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum similarity (0 uses the server default)")
	cmd.Flags().StringVar(&channelID, "channel", "", "Restrict thread search to one channel")

	return cmd
}

func runSearch(cmd *cobra.Command, query, scope string, limit int, threshold float64, channelID string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	req := SearchRequest{
		Query:     query,
		Type:      scope,
		Limit:     limit,
		Threshold: threshold,
		ChannelID: channelID,
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var results []SearchResult
	if err := json.Unmarshal(resp.Data, &results); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(results))
	for i, result := range results {
		switch result.Type {
		case "channel":
			fmt.Printf("%d. #%s (%.2f)\n", i+1, result.Channel.Name, result.Similarity)
			if result.Channel.Summary != "" {
				fmt.Printf("   %s\n", truncate(result.Channel.Summary, 100))
			}
			fmt.Printf("   %d messages, %d participants\n",
				result.Channel.MessageCount, result.Channel.ParticipantCount)
		case "thread":
			fmt.Printf("%d. thread %s in %s (%.2f)\n",
				i+1, result.Thread.ThreadTS, result.Thread.ChannelID, result.Similarity)
			if result.Thread.RootMessage != "" {
				fmt.Printf("   %s\n", truncate(result.Thread.RootMessage, 100))
			}
			if result.Thread.Category != "" {
				fmt.Printf("   Category: %s\n", result.Thread.Category)
			}
		}
		if i < len(results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
