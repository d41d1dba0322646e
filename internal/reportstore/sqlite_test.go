package reportstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "reportstore-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStore(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	return store
}

func testReport(id string) *domain.AnalysisReport {
	adjust := "Reduce by 50–75%"
	guideline := "CPIC Warfarin 2017"
	return &domain.AnalysisReport{
		ID:            id,
		Drug:          "WARFARIN",
		PrimaryGene:   "CYP2C9",
		Genes:         []string{"CYP2C9", "VKORC1"},
		PhenotypeCode: "PM",
		Variants: []domain.Variant{
			{
				RSID: "rs1799853", Gene: "CYP2C9", Chromosome: "chr10",
				Position: 94981296, Ref: "C", Alt: "T", Filter: "PASS",
				Genotype: "0/1", ClinicalSignificance: "Pathogenic",
				Sample: "PATIENT_1",
			},
		},
		GeneCoverage: []string{"CYP2C9"},
		Risk: domain.RiskResult{
			RiskEntry: domain.RiskEntry{
				RiskLabel:        domain.RiskToxic,
				Severity:         domain.SeverityHigh,
				Action:           "High bleeding risk",
				DosingAdjustment: &adjust,
				Monitoring:       "INR weekly",
				CPICGuideline:    &guideline,
				Alternatives:     []string{"APIXABAN", "RIVAROXABAN"},
			},
			ConfidenceScore: 0.95,
		},
		Sample:       "PATIENT_1",
		ProcessingMs: 12,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestNewSQLiteStore(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "reportstore-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "reports.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	report := testReport("7f9c2f61-0001-4e7a-9f3a-000000000001")

	require.NoError(t, store.Save(ctx, report))

	retrieved, err := store.Get(ctx, report.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, report.Drug, retrieved.Drug)
	assert.Equal(t, report.PhenotypeCode, retrieved.PhenotypeCode)
	assert.Equal(t, report.Risk.RiskLabel, retrieved.Risk.RiskLabel)
	assert.Equal(t, report.Risk.ConfidenceScore, retrieved.Risk.ConfidenceScore)
	require.Len(t, retrieved.Variants, 1)
	assert.Equal(t, "rs1799853", retrieved.Variants[0].RSID)
	require.NotNil(t, retrieved.Risk.DosingAdjustment)
	assert.Equal(t, "Reduce by 50–75%", *retrieved.Risk.DosingAdjustment)
}

func TestSQLiteStore_SaveDuplicateID(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	report := testReport("7f9c2f61-0002-4e7a-9f3a-000000000002")

	require.NoError(t, store.Save(ctx, report))
	// Reports are immutable; a second insert with the same ID must fail.
	assert.Error(t, store.Save(ctx, report))
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	retrieved, err := store.Get(context.Background(), "no-such-report")
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestSQLiteStore_ListAndCount(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC()
	for i, id := range []string{"r-001", "r-002", "r-003"} {
		report := testReport(id)
		report.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, report))
	}

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	summaries, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	// Newest first
	assert.Equal(t, "r-003", summaries[0].ID)
	assert.Equal(t, "r-002", summaries[1].ID)
	assert.Equal(t, domain.RiskToxic, summaries[0].RiskLabel)
	assert.Equal(t, 0.95, summaries[0].ConfidenceScore)

	rest, err := store.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "r-001", rest[0].ID)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	report := testReport("r-delete")
	require.NoError(t, store.Save(ctx, report))

	require.NoError(t, store.Delete(ctx, report.ID))

	retrieved, err := store.Get(ctx, report.ID)
	require.NoError(t, err)
	assert.Nil(t, retrieved)

	err = store.Delete(ctx, report.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLiteStore_ExportImportRoundTrip(t *testing.T) {
	store := createTestStore(t)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, testReport("r-export-1")))
	require.NoError(t, store.Save(ctx, testReport("r-export-2")))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	other := createTestStore(t)
	defer other.Close()

	imported, skipped, err := other.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, imported)
	assert.Equal(t, 0, skipped)

	// Importing again skips everything.
	imported, skipped, err = other.ImportJSON(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, imported)
	assert.Equal(t, 2, skipped)

	retrieved, err := other.Get(ctx, "r-export-1")
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, domain.RiskToxic, retrieved.Risk.RiskLabel)
}
