package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command for knowledge items.
func ListCmd() *cobra.Command {
	var domainID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge items in a domain",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			if domainID == "" {
				return fmt.Errorf("--domain is required")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/knowledge?domain_id=" + url.QueryEscape(domainID))
			if err != nil {
				return fmt.Errorf("failed to list knowledge: %w", err)
			}

			var items []KnowledgeItem
			if err := json.Unmarshal(resp.Data, &items); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(items)
				return nil
			}

			if len(items) == 0 {
				fmt.Println("No knowledge items found.")
				return nil
			}
			for _, item := range items {
				title := item.Title
				if title == "" {
					title = truncate(item.Content, 60)
				}
				fmt.Printf("%s  [%s]  %s\n", item.ID, item.ContentType, title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domainID, "domain", "", "Domain ID to list")

	return cmd
}

// GetCmd creates the get command for a single knowledge item.
func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/knowledge/" + args[0])
			if err != nil {
				return fmt.Errorf("failed to get knowledge item: %w", err)
			}

			var item KnowledgeItem
			if err := json.Unmarshal(resp.Data, &item); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(item)
				return nil
			}

			fmt.Printf("ID: %s\n", item.ID)
			fmt.Printf("Domain: %s\n", item.DomainID)
			if item.Title != "" {
				fmt.Printf("Title: %s\n", item.Title)
			}
			fmt.Printf("Type: %s\n", item.ContentType)
			if len(item.Tags) > 0 {
				fmt.Printf("Tags: %v\n", item.Tags)
			}
			if item.SourceURL != "" {
				fmt.Printf("Source URL: %s\n", item.SourceURL)
			}
			if item.SourceFile != "" {
				fmt.Printf("Source file: %s\n", item.SourceFile)
			}
			fmt.Printf("Created: %s\n", item.CreatedAt)
			fmt.Printf("\n%s\n", item.Content)
			return nil
		},
	}
}

// DeleteCmd creates the delete command for a knowledge item.
func DeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/knowledge/" + args[0]); err != nil {
				return fmt.Errorf("failed to delete knowledge item: %w", err)
			}

			fmt.Printf("Deleted knowledge item: %s\n", args[0])
			return nil
		},
	}
}

// AttachCmd creates the attach command, which uploads a local file as
// the item's source document.
func AttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id> <file>",
		Short: "Attach a source file to a knowledge item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.PostFile("/knowledge/"+args[0]+"/attach", args[1])
			if err != nil {
				return fmt.Errorf("failed to attach file: %w", err)
			}

			var result struct {
				ID         string `json:"id"`
				SourceFile string `json:"source_file"`
			}
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(result)
			} else {
				fmt.Printf("Attached %s to %s\n", result.SourceFile, result.ID)
			}
			return nil
		},
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
