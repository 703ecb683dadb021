package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// IngestRequest represents the create knowledge API request.
type IngestRequest struct {
	DomainID    string   `json:"domain_id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ContentType string   `json:"content_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

// KnowledgeItem represents a knowledge item returned by the API.
type KnowledgeItem struct {
	ID          string   `json:"id"`
	DomainID    string   `json:"domain_id"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
	SourceFile  string   `json:"source_file,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		file        string
		domainID    string
		title       string
		contentType string
		tags        []string
		sourceURL   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add knowledge from stdin or file",
		Long: `Add a knowledge item from JSON input (stdin or file) or raw content with flags.

Examples:
  # Add from JSON on stdin
  echo '{"domain_id":"...","title":"Test","content":"..."}' | mindfold add

  # Add from a JSON file
  mindfold add --file item.json

  # Add raw content from a file with flags
  mindfold add --file notes.md --domain <id> --title "Meeting notes"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runAdd(cmd, file, domainID, title, contentType, tags, sourceURL, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (JSON or raw content)")
	cmd.Flags().StringVar(&domainID, "domain", "", "Domain ID to store the item in")
	cmd.Flags().StringVar(&title, "title", "", "Title (required with raw content)")
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "Content type (note, document, link, snippet)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&sourceURL, "source-url", "", "Source URL")

	return cmd
}

func runAdd(cmd *cobra.Command, file, domainID, title, contentType string, tags []string, sourceURL string, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	var input []byte
	if file != "" {
		input, err = os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
	} else {
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	if len(input) == 0 {
		return fmt.Errorf("no input provided")
	}

	var req IngestRequest
	if isJSONInput(input) {
		if err := json.Unmarshal(input, &req); err != nil {
			return fmt.Errorf("failed to parse JSON input: %w", err)
		}
	} else {
		req.Content = string(input)
	}

	// Flags override JSON fields.
	if domainID != "" {
		req.DomainID = domainID
	}
	if title != "" {
		req.Title = title
	}
	if contentType != "" {
		req.ContentType = contentType
	}
	if len(tags) > 0 {
		req.Tags = tags
	}
	if sourceURL != "" {
		req.SourceURL = sourceURL
	}

	if req.DomainID == "" {
		return fmt.Errorf("domain_id is required (use --domain)")
	}
	if req.Content == "" {
		return fmt.Errorf("content is required")
	}

	resp, err := api.Post("/knowledge", req)
	if err != nil {
		return fmt.Errorf("failed to add knowledge: %w", err)
	}

	var item KnowledgeItem
	if err := json.Unmarshal(resp.Data, &item); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		printJSON(item)
	} else {
		fmt.Printf("Created knowledge item: %s\n", item.ID)
		if item.Title != "" {
			fmt.Printf("Title: %s\n", item.Title)
		}
		fmt.Printf("Domain: %s\n", item.DomainID)
	}

	return nil
}

func isJSONInput(input []byte) bool {
	s := strings.TrimSpace(string(input))
	return len(s) > 0 && (s[0] == '{' || s[0] == '[')
}
