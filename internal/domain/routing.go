package domain

import (
	"fmt"
	"time"
)

// SelectedDomain is one ranked entry in a routing decision.
type SelectedDomain struct {
	DomainID       string  `json:"domain_id"`
	DomainName     string  `json:"domain_name"`
	Rank           int     `json:"rank"`
	RelevanceScore float64 `json:"relevance_score"`
}

// RoutingLog is the persisted audit record of one committed routing
// decision. DomainScores holds every owner domain for audit
// completeness: zero-item domains at 0 and domains the minimum-floor
// filter excluded from SelectedDomains at their real score.
type RoutingLog struct {
	ID                string
	OwnerID           string
	QueryText         string
	QueryEmbedding    []float32
	DomainScores      map[string]float64
	SelectedDomains   []SelectedDomain
	RoutingConfidence float64
	UserRating        *int
	CreatedAt         time.Time
}

// ValidateRoutingLog validates a RoutingLog instance
func ValidateRoutingLog(l *RoutingLog) error {
	if l == nil {
		return fmt.Errorf("routing log cannot be nil")
	}

	if l.ID == "" {
		return fmt.Errorf("routing log ID is required")
	}

	if l.OwnerID == "" {
		return fmt.Errorf("routing log OwnerID is required")
	}

	if l.QueryText == "" {
		return fmt.Errorf("routing log QueryText is required")
	}

	if l.RoutingConfidence < 0 || l.RoutingConfidence > 1 {
		return fmt.Errorf("routing log RoutingConfidence must be in [0,1]: %f", l.RoutingConfidence)
	}

	if l.UserRating != nil && (*l.UserRating < 1 || *l.UserRating > 5) {
		return ErrInvalidRating
	}

	return nil
}
