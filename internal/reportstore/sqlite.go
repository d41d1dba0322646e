package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pharmaguard-server/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite. It is the default
// backend for standalone deployments with no external database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite report store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSummary scans a row into a ReportSummary.
func scanSummary(s scanner) (*ReportSummary, error) {
	summary := &ReportSummary{}
	var riskLabel, severity string

	err := s.Scan(
		&summary.ID, &summary.Drug, &summary.PhenotypeCode,
		&riskLabel, &severity, &summary.ConfidenceScore,
		&summary.Sample, &summary.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	summary.RiskLabel = domain.RiskLabel(riskLabel)
	summary.Severity = domain.Severity(severity)
	return summary, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		drug TEXT NOT NULL,
		primary_gene TEXT DEFAULT '',
		phenotype_code TEXT DEFAULT '',
		risk_label TEXT NOT NULL,
		severity TEXT NOT NULL,
		confidence_score REAL NOT NULL DEFAULT 0,
		sample TEXT DEFAULT '',
		report_json TEXT NOT NULL,
		processing_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_drug ON reports(drug);
	CREATE INDEX IF NOT EXISTS idx_reports_risk_label ON reports(risk_label);
	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Save stores a completed analysis report. Reports are immutable, so a
// duplicate ID is an error rather than an update.
func (s *SQLiteStore) Save(ctx context.Context, report *domain.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (
			id, drug, primary_gene, phenotype_code,
			risk_label, severity, confidence_score,
			sample, report_json, processing_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
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
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.AnalysisReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT report_json FROM reports WHERE id = ? LIMIT 1", id,
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
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*ReportSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, drug, phenotype_code, risk_label, severity,
			confidence_score, sample, created_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
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
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

// Delete removes a report by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = ?", id)
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

// maxExportLimit is the maximum number of reports to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all reports to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_json FROM reports
		ORDER BY created_at DESC
		LIMIT ?
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
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
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
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
