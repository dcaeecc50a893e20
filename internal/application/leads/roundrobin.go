package leads

import (
	"sort"

	"protegeya-backend/internal/domain"

	"github.com/google/uuid"
)

// Rotation orders the pool for the next automatic assignment: brokers whose id sorts
// strictly after last come first, then the rotation wraps. A nil last starts at the
// lowest id. The input slice is not modified.
func Rotation(pool []domain.Broker, last *uuid.UUID) []domain.Broker {
	sorted := make([]domain.Broker, len(pool))
	copy(sorted, pool)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	if last == nil {
		return sorted
	}
	key := last.String()
	start := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].ID.String() > key
	})
	out := make([]domain.Broker, 0, len(sorted))
	out = append(out, sorted[start:]...)
	return append(out, sorted[:start]...)
}

func without(pool []domain.Broker, id *uuid.UUID) []domain.Broker {
	if id == nil {
		return pool
	}
	out := pool[:0:0]
	for _, b := range pool {
		if b.ID != *id {
			out = append(out, b)
		}
	}
	return out
}
