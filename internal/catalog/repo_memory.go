package catalog

import (
	"context"
	"sync"
)

// MemoryRepo keeps indicators in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu         sync.RWMutex
	byCode     map[string]Indicator
	duplicates []string
}

// NewMemoryRepo constructs a MemoryRepo seeded with indicators.
func NewMemoryRepo(indicators ...Indicator) *MemoryRepo {
	r := &MemoryRepo{byCode: make(map[string]Indicator, len(indicators))}
	for _, ind := range indicators {
		ind.Code = NormalizeCode(ind.Code)
		if _, ok := r.byCode[ind.Code]; ok {
			r.duplicates = appendUnique(r.duplicates, ind.Code)
		}
		r.byCode[ind.Code] = ind
	}
	return r
}

// List returns a snapshot of the stored indicators.
func (r *MemoryRepo) List(ctx context.Context) (Catalog, error) {
	if err := ctx.Err(); err != nil {
		return Catalog{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	indicators := make([]Indicator, 0, len(r.byCode))
	for _, ind := range r.byCode {
		indicators = append(indicators, ind)
	}
	return New(indicators).withDuplicates(r.duplicates), nil
}

// Upsert stores indicators by code, bumping the version of replaced ones.
func (r *MemoryRepo) Upsert(ctx context.Context, indicators []Indicator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ind := range indicators {
		ind.Code = NormalizeCode(ind.Code)
		if prev, ok := r.byCode[ind.Code]; ok {
			ind.Version = prev.Version + 1
		} else if ind.Version == 0 {
			ind.Version = 1
		}
		r.byCode[ind.Code] = ind
	}
	return nil
}
