package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// ThreadListItem is one thread row of the list response.
type ThreadListItem struct {
	ChannelID   string `json:"channel_id"`
	ThreadTS    string `json:"thread_ts"`
	RootMessage string `json:"root_message,omitempty"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status"`
	ReplyCount  int    `json:"reply_count"`
	UpdatedAt   string `json:"updated_at"`
}

// ThreadListResponse represents the threads API response.
type ThreadListResponse struct {
	Items   []ThreadListItem `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"has_more"`
}

// ThreadsCmd creates the threads command.
func ThreadsCmd() *cobra.Command {
	var (
		category string
		limit    int
		cursor   string
	)

	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List indexed threads",
		Long:  "Lists indexed threads, newest first, optionally filtered by category.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runThreads(cmd, category, limit, cursor, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of threads per page")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runThreads(cmd *cobra.Command, category string, limit int, cursor string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	path := "/threads"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("listing threads failed: %w", err)
	}

	var list ThreadListResponse
	if err := json.Unmarshal(resp.Data, &list); err != nil {
		return fmt.Errorf("failed to parse thread list: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(list.Items) == 0 {
		fmt.Println("No threads found.")
		return nil
	}

	for _, item := range list.Items {
		category := item.Category
		if category == "" {
			category = "uncategorized"
		}
		fmt.Printf("%s %s  [%s]  %d replies  %s\n",
			item.ChannelID, item.ThreadTS, category, item.ReplyCount,
			truncate(item.RootMessage, 60))
	}

	if list.HasMore && list.Cursor != "" {
		fmt.Printf("\nMore threads available. Use --cursor %s\n", list.Cursor)
	}

	return nil
}
