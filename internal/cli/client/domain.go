package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Domain represents a brain domain returned by the API.
type Domain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// DomainCmd creates the domain parent command.
func DomainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Manage brain domains",
		Long:  "Create, list, inspect, update, and delete the domains knowledge is routed into.",
	}

	cmd.AddCommand(DomainCreateCmd())
	cmd.AddCommand(DomainListCmd())
	cmd.AddCommand(DomainGetCmd())
	cmd.AddCommand(DomainUpdateCmd())
	cmd.AddCommand(DomainDeleteCmd())

	return cmd
}

// DomainCreateCmd creates the domain create command.
func DomainCreateCmd() *cobra.Command {
	var description, color, icon string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Post("/domains", map[string]string{
				"name":        args[0],
				"description": description,
				"color":       color,
				"icon":        icon,
			})
			if err != nil {
				return fmt.Errorf("failed to create domain: %w", err)
			}

			var d Domain
			if err := json.Unmarshal(resp.Data, &d); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(d)
			} else {
				fmt.Printf("Created domain: %s\n", d.ID)
				fmt.Printf("Name: %s\n", d.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Domain description")
	cmd.Flags().StringVar(&color, "color", "", "Display color")
	cmd.Flags().StringVar(&icon, "icon", "", "Display icon")

	return cmd
}

// DomainListCmd creates the domain list command.
func DomainListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/domains")
			if err != nil {
				return fmt.Errorf("failed to list domains: %w", err)
			}

			var domains []Domain
			if err := json.Unmarshal(resp.Data, &domains); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(domains)
				return nil
			}

			if len(domains) == 0 {
				fmt.Println("No domains found.")
				return nil
			}
			for _, d := range domains {
				fmt.Printf("%s  %s", d.ID, d.Name)
				if d.Description != "" {
					fmt.Printf("  (%s)", d.Description)
				}
				fmt.Println()
			}
			return nil
		},
	}
}

// DomainGetCmd creates the domain get command.
func DomainGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/domains/" + args[0])
			if err != nil {
				return fmt.Errorf("failed to get domain: %w", err)
			}

			var d Domain
			if err := json.Unmarshal(resp.Data, &d); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(d)
				return nil
			}

			fmt.Printf("ID: %s\n", d.ID)
			fmt.Printf("Name: %s\n", d.Name)
			if d.Description != "" {
				fmt.Printf("Description: %s\n", d.Description)
			}
			if d.Color != "" {
				fmt.Printf("Color: %s\n", d.Color)
			}
			if d.Icon != "" {
				fmt.Printf("Icon: %s\n", d.Icon)
			}
			fmt.Printf("Created: %s\n", d.CreatedAt)
			return nil
		},
	}
}

// DomainUpdateCmd creates the domain update command. Only flags the
// caller sets are sent, so unset fields keep their current values.
func DomainUpdateCmd() *cobra.Command {
	var name, description, color, icon string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			body := map[string]*string{}
			if cmd.Flags().Changed("name") {
				body["name"] = &name
			}
			if cmd.Flags().Changed("description") {
				body["description"] = &description
			}
			if cmd.Flags().Changed("color") {
				body["color"] = &color
			}
			if cmd.Flags().Changed("icon") {
				body["icon"] = &icon
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update: set at least one of --name, --description, --color, --icon")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Put("/domains/"+args[0], body)
			if err != nil {
				return fmt.Errorf("failed to update domain: %w", err)
			}

			var d Domain
			if err := json.Unmarshal(resp.Data, &d); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(d)
			} else {
				fmt.Printf("Updated domain: %s\n", d.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVar(&color, "color", "", "New display color")
	cmd.Flags().StringVar(&icon, "icon", "", "New display icon")

	return cmd
}

// DomainDeleteCmd creates the domain delete command.
func DomainDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a domain and its knowledge items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Delete("/domains/" + args[0]); err != nil {
				return fmt.Errorf("failed to delete domain: %w", err)
			}

			fmt.Printf("Deleted domain: %s\n", args[0])
			return nil
		},
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
