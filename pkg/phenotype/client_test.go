package phenotype

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(baseURL string) *Client {
	return NewClient(domain.PhenotypeConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		RateLimit:  100,
		RetryCount: 1,
	}, testLogger())
}

func TestCallPhenotypeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/phenotype", r.URL.Path)
		assert.Equal(t, "CYP2D6", r.URL.Query().Get("gene"))
		assert.Equal(t, "PATIENT_1", r.URL.Query().Get("sample"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(callResponse{
			Gene:       "CYP2D6",
			Sample:     "PATIENT_1",
			Diplotype:  "*4/*4",
			Phenotype:  "Poor Metabolizer",
			Confidence: 0.95,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	code, confidence, err := client.CallPhenotype(context.Background(), "cyp2d6", "PATIENT_1")
	require.NoError(t, err)
	assert.Equal(t, "Poor Metabolizer", code)
	assert.Equal(t, 0.95, confidence)
}

func TestCallPhenotypeEmptyGene(t *testing.T) {
	client := newTestClient("http://localhost:1")

	_, _, err := client.CallPhenotype(context.Background(), "  ", "PATIENT_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gene symbol cannot be empty")
}

func TestCallPhenotypeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.CallPhenotype(context.Background(), "CYP2C19", "PATIENT_1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCallPhenotypeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.CallPhenotype(context.Background(), "TPMT", "PATIENT_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestCallPhenotypeRetriesThenSucceeds(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(callResponse{
			Phenotype:  "Intermediate Metabolizer",
			Confidence: 0.7,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	code, confidence, err := client.CallPhenotype(context.Background(), "SLCO1B1", "PATIENT_1")
	require.NoError(t, err)
	assert.Equal(t, "Intermediate Metabolizer", code)
	assert.Equal(t, 0.7, confidence)
	assert.Equal(t, int64(2), atomic.LoadInt64(&calls))
}

func TestCallPhenotypeEmptyPhenotype(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(callResponse{Confidence: 0.4})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := client.CallPhenotype(context.Background(), "DPYD", "PATIENT_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty phenotype")
}
