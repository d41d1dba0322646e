// Package repository persists extracted variant records in PostgreSQL so
// panel variants remain queryable per report outside the report JSON blob.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// VariantRepository handles variant data persistence
type VariantRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewVariantRepository creates a new variant repository
func NewVariantRepository(db *pgxpool.Pool, logger *logrus.Logger) *VariantRepository {
	return &VariantRepository{
		db:  db,
		log: logger,
	}
}

// SaveVariants inserts all variant records of one report in a single batch.
// Variant rows are immutable; the report ID scopes them.
func (r *VariantRepository) SaveVariants(ctx context.Context, reportID string, variants []domain.Variant) error {
	if len(variants) == 0 {
		return nil
	}

	query := `
		INSERT INTO report_variants (
			report_id, rsid, gene, chromosome, position,
			reference, alternative, qual, filter,
			genotype, phased, star_allele, clinical_significance,
			allele_freq, depth, sample
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`

	batch := &pgx.Batch{}
	for _, v := range variants {
		batch.Queue(query,
			reportID, v.RSID, v.Gene, v.Chromosome, v.Position,
			v.Ref, v.Alt, v.Qual, v.Filter,
			v.Genotype, v.Phased, v.StarAllele, v.ClinicalSignificance,
			v.AlleleFreq, v.Depth, v.Sample,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range variants {
		if _, err := results.Exec(); err != nil {
			r.log.WithFields(logrus.Fields{
				"report_id": reportID,
				"error":     err,
			}).Error("Failed to save report variants")
			return fmt.Errorf("saving report variants: %w", err)
		}
	}

	r.log.WithFields(logrus.Fields{
		"report_id": reportID,
		"variants":  len(variants),
	}).Info("Report variants saved")

	return nil
}

// GetByReport retrieves all variant records for one report, in insertion
// order.
func (r *VariantRepository) GetByReport(ctx context.Context, reportID string) ([]domain.Variant, error) {
	query := `
		SELECT rsid, gene, chromosome, position,
			   reference, alternative, qual, filter,
			   genotype, phased, star_allele, clinical_significance,
			   allele_freq, depth, sample
		FROM report_variants
		WHERE report_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, reportID)
	if err != nil {
		return nil, fmt.Errorf("querying report variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(
			&v.RSID, &v.Gene, &v.Chromosome, &v.Position,
			&v.Ref, &v.Alt, &v.Qual, &v.Filter,
			&v.Genotype, &v.Phased, &v.StarAllele, &v.ClinicalSignificance,
			&v.AlleleFreq, &v.Depth, &v.Sample,
		); err != nil {
			return nil, fmt.Errorf("scanning variant row: %w", err)
		}
		variants = append(variants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading variant rows: %w", err)
	}

	return variants, nil
}

// CountByGene returns how many stored variant rows exist per panel gene,
// useful for coverage dashboards.
func (r *VariantRepository) CountByGene(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT gene, COUNT(*) FROM report_variants GROUP BY gene`)
	if err != nil {
		return nil, fmt.Errorf("counting variants by gene: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var gene string
		var count int64
		if err := rows.Scan(&gene, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[gene] = count
	}
	return counts, rows.Err()
}
