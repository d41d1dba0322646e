// Package phenotype calls an external diplotype-to-phenotype service.
// Phenotype inference is deliberately outside this system; the client only
// fetches pre-computed phenotype calls for a gene and sample.
package phenotype

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pharmaguard-server/internal/domain"
)

// Client handles interactions with the external phenotype calling API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retryCount int
	log        *logrus.Logger
}

// callResponse represents the JSON response from the phenotype service.
type callResponse struct {
	Gene       string  `json:"gene"`
	Sample     string  `json:"sample"`
	Diplotype  string  `json:"diplotype"`
	Phenotype  string  `json:"phenotype"`
	Confidence float64 `json:"confidence"`
}

// NewClient creates a new phenotype API client.
func NewClient(config domain.PhenotypeConfig, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5 // requests per second
	}
	if config.RetryCount == 0 {
		config.RetryCount = 2
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "PhenotypeService",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:    breaker,
		retryCount: config.RetryCount,
		log:        logger,
	}
}

// CallPhenotype fetches the phenotype call for a gene and sample. The
// returned code is the service's phenotype string (e.g. "Poor Metabolizer")
// together with its confidence score, passed through unmodified.
func (c *Client) CallPhenotype(ctx context.Context, gene, sample string) (string, float64, error) {
	gene = strings.TrimSpace(strings.ToUpper(gene))
	if gene == "" {
		return "", 0, fmt.Errorf("gene symbol cannot be empty")
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", 0, fmt.Errorf("rate limit wait failed: %w", err)
	}

	var resp *callResponse
	var err error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return "", 0, ctx.Err()
			}
		}

		result, berr := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchCall(ctx, gene, sample)
		})
		if berr == nil {
			resp = result.(*callResponse)
			err = nil
			break
		}
		err = berr
		if berr == gobreaker.ErrOpenState || ctx.Err() != nil {
			break
		}
		c.log.WithFields(logrus.Fields{
			"gene":    gene,
			"sample":  sample,
			"attempt": attempt + 1,
			"error":   berr,
		}).Warn("Phenotype call attempt failed")
	}
	if err != nil {
		return "", 0, fmt.Errorf("calling phenotype service for %s: %w", gene, err)
	}

	c.log.WithFields(logrus.Fields{
		"gene":       gene,
		"sample":     sample,
		"phenotype":  resp.Phenotype,
		"confidence": resp.Confidence,
	}).Debug("Phenotype call resolved")

	return resp.Phenotype, resp.Confidence, nil
}

func (c *Client) fetchCall(ctx context.Context, gene, sample string) (*callResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/phenotype?%s", c.baseURL, url.Values{
		"gene":   {gene},
		"sample": {sample},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if httpResp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no phenotype call for gene %s: %w", gene, domain.ErrNotFound)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("phenotype service returned status %d: %s",
			httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var resp callResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.Phenotype == "" {
		return nil, fmt.Errorf("phenotype service returned empty phenotype for gene %s", gene)
	}

	return &resp, nil
}
