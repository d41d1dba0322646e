// Package reportstore provides persistence for completed PGx analysis
// reports. Reports are immutable once produced: the store supports insert,
// lookup, listing and export, but no update path exists.
package reportstore

import (
	"context"
	"io"
	"time"

	"github.com/pharmaguard-server/internal/domain"
)

// ReportSummary is the lightweight listing projection of a stored report.
// Full reports, including every variant record, live in the JSON payload and
// are only materialized on Get.
type ReportSummary struct {
	ID              string           `json:"id"`
	Drug            string           `json:"drug"`
	PhenotypeCode   string           `json:"phenotype_code"`
	RiskLabel       domain.RiskLabel `json:"risk_label"`
	Severity        domain.Severity  `json:"severity"`
	ConfidenceScore float64          `json:"confidence_score"`
	Sample          string           `json:"sample,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Store defines the interface for report storage operations.
type Store interface {
	// Save stores a completed analysis report.
	Save(ctx context.Context, report *domain.AnalysisReport) error

	// Get retrieves a report by ID. Returns (nil, nil) when no report with
	// that ID exists.
	Get(ctx context.Context, id string) (*domain.AnalysisReport, error)

	// List returns report summaries, newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*ReportSummary, error)

	// Count returns the total number of stored reports.
	Count(ctx context.Context) (int64, error)

	// Delete removes a report by ID.
	Delete(ctx context.Context, id string) error

	// ExportJSON exports all reports to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON imports reports from a JSON reader. Reports whose ID already
	// exists are skipped. Returns the number of imported and skipped entries.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// ReportExport represents the JSON export format.
type ReportExport struct {
	Version    string                   `json:"version"`
	ExportedAt time.Time                `json:"exported_at"`
	Count      int                      `json:"count"`
	Reports    []*domain.AnalysisReport `json:"reports"`
}
