package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudlark/slackbase/internal/cli"
	"github.com/cloudlark/slackbase/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slackbased",
		Short: "Slackbase daemon",
		Long:  "Slackbase daemon: captures Slack channels and threads into a searchable knowledge base",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.StatsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
