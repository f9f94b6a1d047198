package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudlark/slackbase/internal/cli"
	"github.com/cloudlark/slackbase/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "slackbase",
		Short: "Slackbase CLI - search your Slack knowledge base",
		Long: `Slackbase CLI queries a running slackbased daemon.

Environment variables:
  SLACKBASE_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.SearchCmd())
	rootCmd.AddCommand(client.StatsCmd())
	rootCmd.AddCommand(client.ThreadsCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
