package booking

import (
	"context"
	"strings"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

// EquipmentDirectory answers how many of ids are available equipment of a laboratory.
type EquipmentDirectory interface {
	CountAvailableInLab(ctx context.Context, labID string, ids []string) (int, error)
}

// checkEquipment validates that every id names available equipment of labID.
// It returns the ids de-duplicated in submission order, or an empty slice.
// The check reflects the equipment status at call time only; nothing is reserved.
func checkEquipment(ctx context.Context, dir EquipmentDirectory, labID string, ids []string) ([]string, error) {
	canonical := normalizeEquipmentIDs(ids)
	if len(canonical) == 0 {
		return []string{}, nil
	}

	n, err := dir.CountAvailableInLab(ctx, labID, canonical)
	if err != nil {
		return nil, apperror.Persistence(err, "failed to check equipment")
	}
	if n < len(canonical) {
		return nil, ErrForeignEquipment
	}
	return canonical, nil
}

func normalizeEquipmentIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
