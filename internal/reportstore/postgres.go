package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/pharmaguard-server/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL. It is used
// in multi-instance deployments where reports must be shared.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL report store.
// It expects the database and schema to already exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL report store from a
// connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores a completed analysis report.
func (s *PostgresStore) Save(ctx context.Context, report *domain.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reports (
			id, drug, primary_gene, phenotype_code,
			risk_label, severity, confidence_score,
			sample, report_json, processing_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.Drug,
		report.PrimaryGene,
		report.PhenotypeCode,
		string(report.Risk.RiskLabel),
		string(report.Risk.Severity),
		report.Risk.ConfidenceScore,
		report.Sample,
		string(payload),
		report.ProcessingMs,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// Get retrieves a report by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.AnalysisReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT report_json FROM reports WHERE id = $1 LIMIT 1", id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}

	report := &domain.AnalysisReport{}
	if err := json.Unmarshal([]byte(payload), report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return report, nil
}

// List returns report summaries, newest first, with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, drug, phenotype_code, risk_label, severity,
			confidence_score, sample, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*ReportSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

// Count returns the total number of stored reports.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

// Delete removes a report by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ExportJSON exports all reports to a JSON writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_json FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`, maxExportLimit)
	if err != nil {
		return fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var all []*domain.AnalysisReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		report := &domain.AnalysisReport{}
		if err := json.Unmarshal([]byte(payload), report); err != nil {
			return fmt.Errorf("failed to unmarshal report: %w", err)
		}
		all = append(all, report)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	export := &ReportExport{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Reports:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON imports reports from a JSON reader.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export ReportExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, report := range export.Reports {
		existing, err := s.Get(ctx, report.ID)
		if err != nil {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := s.Save(ctx, report); err != nil {
			return imported, skipped, fmt.Errorf("failed to import report %s: %w", report.ID, err)
		}
		imported++
	}

	return imported, skipped, nil
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
