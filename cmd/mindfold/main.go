package main

import (
	"fmt"
	"os"

	"github.com/mindfoldhq/mindfold/internal/cli"
	"github.com/mindfoldhq/mindfold/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mindfold",
		Short: "Mindfold CLI - Route knowledge into brain domains",
		Long: `Mindfold CLI manages brain domains, knowledge items, routing, and actions.

Environment variables:
  MINDFOLD_API_KEY   API key for authentication (required)
  MINDFOLD_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-key", "", "API key for authentication (overrides env and config)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AuthCmd())
	rootCmd.AddCommand(client.DomainCmd())
	rootCmd.AddCommand(client.AddCmd())
	rootCmd.AddCommand(client.ListCmd())
	rootCmd.AddCommand(client.GetCmd())
	rootCmd.AddCommand(client.DeleteCmd())
	rootCmd.AddCommand(client.AttachCmd())
	rootCmd.AddCommand(client.RouteCmd())
	rootCmd.AddCommand(client.PreviewCmd())
	rootCmd.AddCommand(client.RateCmd())
	rootCmd.AddCommand(client.HistoryCmd())
	rootCmd.AddCommand(client.ActionCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
