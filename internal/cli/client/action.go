package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// Action represents a queued action returned by the API.
type Action struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorLog    string          `json:"error_log,omitempty"`
	CreatedAt   string          `json:"created_at"`
	StartedAt   string          `json:"started_at,omitempty"`
	CompletedAt string          `json:"completed_at,omitempty"`
}

// ActionCmd creates the action parent command.
func ActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Queue and execute actions",
		Long:  "Queue actions (create_task, send_notification, store_knowledge), run pending ones, and inspect results.",
	}

	cmd.AddCommand(ActionQueueCmd())
	cmd.AddCommand(ActionRunCmd())
	cmd.AddCommand(ActionListCmd())
	cmd.AddCommand(ActionGetCmd())
	cmd.AddCommand(ActionCancelCmd())

	return cmd
}

// ActionQueueCmd creates the action queue command.
func ActionQueueCmd() *cobra.Command {
	var payload string

	cmd := &cobra.Command{
		Use:   "queue <type>",
		Short: "Queue an action",
		Long: `Queue an action for later execution.

The payload is a JSON object read from --payload or stdin:

  mindfold action queue create_task --payload '{"title":"Review budget"}'
  echo '{"title":"Hello","body":"..."}' | mindfold action queue send_notification`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			raw := []byte(payload)
			if payload == "" {
				input, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				raw = input
			}
			if len(raw) == 0 {
				return fmt.Errorf("payload is required (use --payload or stdin)")
			}
			if !json.Valid(raw) {
				return fmt.Errorf("payload must be valid JSON")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/actions", map[string]json.RawMessage{
				"type":    json.RawMessage(strconv.Quote(args[0])),
				"payload": json.RawMessage(raw),
			})
			if err != nil {
				return fmt.Errorf("failed to queue action: %w", err)
			}

			var action Action
			if err := json.Unmarshal(resp.Data, &action); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(action)
			} else {
				fmt.Printf("Queued action: %s\n", action.ID)
				fmt.Printf("Type: %s\n", action.Type)
				fmt.Printf("Status: %s\n", action.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&payload, "payload", "p", "", "Action payload as a JSON object")

	return cmd
}

// ActionRunCmd creates the action run command, which executes pending
// actions on the server.
func ActionRunCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute pending actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/actions/execute", map[string]int{"limit": limit})
			if err != nil {
				return fmt.Errorf("failed to execute actions: %w", err)
			}

			var report struct {
				Executed  int      `json:"executed"`
				Succeeded int      `json:"succeeded"`
				Failed    int      `json:"failed"`
				Actions   []Action `json:"actions"`
			}
			if err := json.Unmarshal(resp.Data, &report); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(report)
				return nil
			}

			fmt.Printf("Executed %d actions (%d succeeded, %d failed)\n",
				report.Executed, report.Succeeded, report.Failed)
			for _, a := range report.Actions {
				line := fmt.Sprintf("%s  %s  %s", a.ID, a.Type, a.Status)
				if a.ErrorLog != "" {
					line += "  " + a.ErrorLog
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of actions to execute (0 = all)")

	return cmd
}

// ActionListCmd creates the action list command.
func ActionListCmd() *cobra.Command {
	var (
		status     string
		actionType string
		limit      int
		cursor     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if actionType != "" {
				q.Set("type", actionType)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if cursor != "" {
				q.Set("cursor", cursor)
			}
			path := "/actions"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("failed to list actions: %w", err)
			}

			var page struct {
				Items   []Action `json:"items"`
				Cursor  string   `json:"cursor,omitempty"`
				HasMore bool     `json:"has_more"`
			}
			if err := json.Unmarshal(resp.Data, &page); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(page)
				return nil
			}

			if len(page.Items) == 0 {
				fmt.Println("No actions found.")
				return nil
			}
			for _, a := range page.Items {
				fmt.Printf("%s  %-20s  %-10s  %s\n", a.ID, a.Type, a.Status, a.CreatedAt)
			}
			if page.HasMore && page.Cursor != "" {
				fmt.Printf("\nMore results available. Use --cursor %s\n", page.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, running, success, failed, cancelled)")
	cmd.Flags().StringVarP(&actionType, "type", "t", "", "Filter by action type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

// ActionGetCmd creates the action get command.
func ActionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/actions/" + args[0])
			if err != nil {
				return fmt.Errorf("failed to get action: %w", err)
			}

			var a Action
			if err := json.Unmarshal(resp.Data, &a); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(a)
				return nil
			}

			fmt.Printf("ID: %s\n", a.ID)
			fmt.Printf("Type: %s\n", a.Type)
			fmt.Printf("Status: %s\n", a.Status)
			if len(a.Payload) > 0 {
				fmt.Printf("Payload: %s\n", string(a.Payload))
			}
			if len(a.Result) > 0 {
				fmt.Printf("Result: %s\n", string(a.Result))
			}
			if a.ErrorLog != "" {
				fmt.Printf("Error: %s\n", a.ErrorLog)
			}
			fmt.Printf("Created: %s\n", a.CreatedAt)
			if a.CompletedAt != "" {
				fmt.Printf("Completed: %s\n", a.CompletedAt)
			}
			return nil
		},
	}
}

// ActionCancelCmd creates the action cancel command.
func ActionCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/actions/"+args[0]+"/cancel", nil); err != nil {
				return fmt.Errorf("failed to cancel action: %w", err)
			}

			fmt.Printf("Cancelled action: %s\n", args[0])
			return nil
		},
	}
}
