package health

import (
	"context"
	"time"

	"igma-backend/internal/catalog"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload.
type Report struct {
	OK         bool   `json:"ok"`
	Database   string `json:"database"`
	Indicators int    `json:"indicators"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Catalog catalog.Reader
	Timeout time.Duration
}

// NewService constructs a new health service. db may be nil when the process
// runs on in-memory repositories.
func NewService(db Pinger, reader catalog.Reader) *Service {
	return &Service{DB: db, Catalog: reader, Timeout: 2 * time.Second}
}

// Status checks the database and the catalog.
func (s *Service) Status(ctx context.Context) Report {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	report := Report{OK: true, Database: "memory"}
	if s.DB != nil {
		report.Database = "up"
		if err := s.DB.PingContext(ctx); err != nil {
			report.Database = "down"
			report.OK = false
		}
	}
	if s.Catalog != nil {
		cat, err := s.Catalog.List(ctx)
		if err != nil {
			report.OK = false
		} else {
			report.Indicators = cat.Len()
		}
	}
	if report.Indicators == 0 {
		report.OK = false
	}
	return report
}
