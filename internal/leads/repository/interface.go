// Package repository persists leads and the conversion events written with them.
package repository

import (
	"context"

	"clinic_marketing_backend/internal/leads/domain"
)

// MutateFunc changes a locked lead in place and returns the conversion
// events to persist in the same transaction. created is true when the row
// was inserted by this call.
type MutateFunc func(lead *domain.Lead, created bool) ([]domain.ConversionEvent, error)

// ListParams filters and pages the lead list.
type ListParams struct {
	Status *domain.Status
	Offset int
	Limit  int
}

// LeadStore is the persistence contract of the leads service.
type LeadStore interface {
	// Mutate runs fn against the current lead under a row lock. When the lead
	// does not exist and create is false it returns a not found error.
	Mutate(ctx context.Context, userID string, platform domain.Platform, create bool, fn MutateFunc) (domain.Lead, error)
	GetByUserID(ctx context.Context, userID string) (domain.Lead, error)
	// List orders by last interaction, newest first, with user id as tiebreak.
	List(ctx context.Context, params ListParams) ([]domain.Lead, int, error)
}
