package catalog

import "context"

// Reader returns a read-only snapshot of the indicator catalog.
type Reader interface {
	List(ctx context.Context) (Catalog, error)
}

// Repo adds write operations used by seeding and administration.
type Repo interface {
	Reader
	Upsert(ctx context.Context, indicators []Indicator) error
}

// WithFallback returns a Reader that serves fallback whenever primary holds
// no indicators.
func WithFallback(primary Reader, fallback []Indicator) Reader {
	return fallbackReader{primary: primary, fallback: New(fallback)}
}

type fallbackReader struct {
	primary  Reader
	fallback Catalog
}

func (r fallbackReader) List(ctx context.Context) (Catalog, error) {
	cat, err := r.primary.List(ctx)
	if err != nil {
		return Catalog{}, err
	}
	if cat.Len() == 0 {
		return r.fallback, nil
	}
	return cat, nil
}
