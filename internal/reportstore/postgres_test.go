package reportstore

import (
	"context"
	"database/sql"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{db: db}, mock
}

func TestPostgresStore_Save(t *testing.T) {
	store, mock := newMockStore(t)

	report := testReport("r-pg-1")
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs(
			report.ID, report.Drug, report.PrimaryGene, report.PhenotypeCode,
			string(report.Risk.RiskLabel), string(report.Risk.Severity),
			report.Risk.ConfidenceScore, report.Sample, sqlmock.AnyArg(),
			report.ProcessingMs, report.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT report_json FROM reports WHERE id = $1")).
		WithArgs("no-such-report").
		WillReturnError(sql.ErrNoRows)

	report, err := store.Get(context.Background(), "no-such-report")
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockStore(t)

	payload := `{"id":"r-pg-2","drug":"CODEINE","phenotype_code":"UM","risk":{"risk_label":"Toxic","severity":"high","action":"Avoid","dosing_adjustment":null,"monitoring":"Respiratory function","cpic_guideline":null,"alternatives":["MORPHINE"],"confidence_score":0.82}}`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT report_json FROM reports WHERE id = $1")).
		WithArgs("r-pg-2").
		WillReturnRows(sqlmock.NewRows([]string{"report_json"}).AddRow(payload))

	report, err := store.Get(context.Background(), "r-pg-2")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "CODEINE", report.Drug)
	assert.Equal(t, domain.RiskToxic, report.Risk.RiskLabel)
	assert.Equal(t, 0.82, report.Risk.ConfidenceScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Count(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

// getTestDB returns a real database connection for integration testing.
// Skip test if TEST_DATABASE_URL is not set.
func getTestDB(t *testing.T) *sql.DB {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL tests")
	}

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			drug TEXT NOT NULL,
			primary_gene TEXT DEFAULT '',
			phenotype_code TEXT DEFAULT '',
			risk_label TEXT NOT NULL,
			severity TEXT NOT NULL,
			confidence_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			sample TEXT DEFAULT '',
			report_json TEXT NOT NULL,
			processing_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM reports")
	require.NoError(t, err)

	return db
}

func TestPostgresStore_Integration(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := NewPostgresStore(db)
	require.NoError(t, err)

	ctx := context.Background()
	report := testReport("r-pg-integration")

	require.NoError(t, store.Save(ctx, report))

	retrieved, err := store.Get(ctx, report.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, report.Drug, retrieved.Drug)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	summaries, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, report.ID, summaries[0].ID)

	require.NoError(t, store.Delete(ctx, report.ID))
}
