package service

import (
	"context"
	"strings"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
)

// normalizeSplit trims ids, drops blanks and duplicates, keeping first-seen order
func normalizeSplit(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// checkKnownPeople rejects ids that do not match a person of the owner
func checkKnownPeople(ctx context.Context, personRepo domain.PersonRepository, ownerID uuid.UUID, ids []string) error {
	if personRepo == nil || len(ids) == 0 {
		return nil
	}

	people, err := personRepo.List(ctx, ownerID)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(people))
	for _, p := range people {
		known[p.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return domain.ErrUnknownPerson
		}
	}
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
