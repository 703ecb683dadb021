package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// RouteRequest represents the routing API request.
type RouteRequest struct {
	Query string `json:"query"`
	TopN  int    `json:"top_n,omitempty"`
}

// SelectedDomain represents one ranked domain in a routing decision.
type SelectedDomain struct {
	DomainID       string  `json:"domain_id"`
	DomainName     string  `json:"domain_name"`
	Rank           int     `json:"rank"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RouteResponse represents the routing API response.
type RouteResponse struct {
	RoutingLogID      string             `json:"routing_log_id,omitempty"`
	SelectedDomains   []SelectedDomain   `json:"selected_domains"`
	DomainScores      map[string]float64 `json:"domain_scores"`
	RoutingConfidence float64            `json:"routing_confidence"`
}

// RoutingLog represents a recorded routing decision.
type RoutingLog struct {
	ID                string             `json:"id"`
	QueryText         string             `json:"query_text"`
	DomainScores      map[string]float64 `json:"domain_scores"`
	SelectedDomains   []SelectedDomain   `json:"selected_domains"`
	RoutingConfidence float64            `json:"routing_confidence"`
	UserRating        *int               `json:"user_rating,omitempty"`
	CreatedAt         string             `json:"created_at"`
}

// RouteCmd creates the route command.
func RouteCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "route <query>",
		Short: "Route a query to the most relevant domains",
		Long:  "Scores every domain against the query and records the decision in the routing history.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runRoute(cmd, "/route", args[0], topN, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topN, "top", "n", 0, "Maximum number of selected domains")

	return cmd
}

// PreviewCmd creates the preview command. Same scoring as route but
// nothing is written to the routing history.
func PreviewCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "preview <query>",
		Short: "Preview routing without recording it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runRoute(cmd, "/route/preview", args[0], topN, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topN, "top", "n", 0, "Maximum number of selected domains")

	return cmd
}

func runRoute(cmd *cobra.Command, path, query string, topN int, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post(path, RouteRequest{Query: query, TopN: topN})
	if err != nil {
		return fmt.Errorf("routing failed: %w", err)
	}

	var route RouteResponse
	if err := json.Unmarshal(resp.Data, &route); err != nil {
		return fmt.Errorf("failed to parse routing response: %w", err)
	}

	if outputJSON {
		printJSON(route)
		return nil
	}

	if len(route.SelectedDomains) == 0 {
		fmt.Println("No domain matched the query.")
	} else {
		for _, d := range route.SelectedDomains {
			fmt.Printf("%d. %s (%.2f)\n", d.Rank, d.DomainName, d.RelevanceScore)
		}
	}
	fmt.Printf("Confidence: %.2f\n", route.RoutingConfidence)
	if route.RoutingLogID != "" {
		fmt.Printf("Routing log: %s\n", route.RoutingLogID)
	}
	return nil
}

// RateCmd creates the rate command for routing feedback.
func RateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <log-id> <rating>",
		Short: "Rate a routing decision (1-5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number between 1 and 5")
			}

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			if _, err := api.Post("/route/"+args[0]+"/rating", map[string]int{"rating": rating}); err != nil {
				return fmt.Errorf("failed to rate routing decision: %w", err)
			}

			fmt.Printf("Rated %s: %d\n", args[0], rating)
			return nil
		},
	}
}

// HistoryCmd creates the history command for past routing decisions.
func HistoryCmd() *cobra.Command {
	var limit int
	var cursor string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show routing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			q := url.Values{}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if cursor != "" {
				q.Set("cursor", cursor)
			}
			path := "/route/history"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("failed to fetch routing history: %w", err)
			}

			var page struct {
				Items   []RoutingLog `json:"items"`
				Cursor  string       `json:"cursor,omitempty"`
				HasMore bool         `json:"has_more"`
			}
			if err := json.Unmarshal(resp.Data, &page); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				printJSON(page)
				return nil
			}

			if len(page.Items) == 0 {
				fmt.Println("No routing history.")
				return nil
			}
			for _, log := range page.Items {
				rating := "-"
				if log.UserRating != nil {
					rating = strconv.Itoa(*log.UserRating)
				}
				fmt.Printf("%s  %.2f  rating=%s  %s\n", log.ID, log.RoutingConfidence, rating, truncate(log.QueryText, 50))
			}
			if page.HasMore && page.Cursor != "" {
				fmt.Printf("\nMore results available. Use --cursor %s\n", page.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}
