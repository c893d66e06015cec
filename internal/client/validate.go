package client

import (
	"fmt"
	"strings"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

// ValidateCreate checks a new item: the title is required.
func ValidateCreate(p model.ItemPatch) error {
	if p.Title == nil || strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title cannot be empty"}
	}
	return ValidatePatch(p)
}

// ValidatePatch checks only the fields that are set.
func ValidatePatch(p model.ItemPatch) error {
	if p.Empty() {
		return &ValidationError{Field: "fields", Reason: "nothing to update"}
	}
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title cannot be empty"}
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return &ValidationError{Field: "category", Reason: "category cannot be empty"}
	}
	if p.Priority != nil && strings.TrimSpace(*p.Priority) == "" {
		return &ValidationError{Field: "priority", Reason: "priority cannot be empty"}
	}
	return nil
}

// ValidateBatch rejects a batch that names the same id twice. Each id must
// map to exactly one outcome in the BatchResult.
func ValidateBatch(entries []BatchEntry) error {
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			return &ValidationError{Field: "entries", Reason: fmt.Sprintf("item %d appears more than once", e.ID)}
		}
		seen[e.ID] = true
	}
	return nil
}
