package domain

import (
	"fmt"
	"strings"
	"time"
)

// BrainDomain represents an owner-scoped named partition of knowledge.
// The name is unique per owner, not globally.
type BrainDomain struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Color       string
	Icon        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBrainDomain creates a new BrainDomain instance
func NewBrainDomain(id, ownerID, name, description string, createdAt time.Time) *BrainDomain {
	return &BrainDomain{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

// ValidateBrainDomain validates a BrainDomain instance
func ValidateBrainDomain(d *BrainDomain) error {
	if d == nil {
		return fmt.Errorf("domain cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("domain ID is required")
	}

	if d.OwnerID == "" {
		return fmt.Errorf("domain OwnerID is required")
	}

	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("domain Name is required")
	}

	return nil
}
