// Package socrata provides a client for Socrata open-data collision datasets.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskroute/riskroute/internal/incident"
	"github.com/riskroute/riskroute/internal/provider/resilience"
)

const (
	// ProviderName identifies this record source.
	ProviderName = "socrata"

	// DefaultBaseURL is the NYC Open Data collisions dataset endpoint.
	DefaultBaseURL = "https://data.cityofnewyork.us/resource/h9gi-nx95.json"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the total number of rows fetched per run.
	DefaultBatchSize = 100000

	// DefaultChunkSize is the number of rows requested per page.
	DefaultChunkSize = 10000
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Socrata client.
type ClientConfig struct {
	// BaseURL is the dataset endpoint (optional, defaults to NYC collisions).
	BaseURL string

	// SinceDate filters rows to crash dates on or after this instant.
	SinceDate time.Time

	// BatchSize is the total number of rows to fetch (optional).
	BatchSize int

	// ChunkSize is the page size per request (optional).
	ChunkSize int

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches raw collision records from a Socrata dataset.
type Client struct {
	baseURL    string
	sinceDate  time.Time
	batchSize  int
	chunkSize  int
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Socrata client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 || chunkSize > batchSize {
		chunkSize = DefaultChunkSize
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		sinceDate:  cfg.SinceDate,
		batchSize:  batchSize,
		chunkSize:  chunkSize,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchRecords retrieves the configured window of raw records. Pages are
// requested concurrently and concatenated in offset order.
func (c *Client) FetchRecords(ctx context.Context) ([]incident.RawRecord, error) {
	offsets := make([]int, 0, c.batchSize/c.chunkSize)
	for offset := 0; offset < c.batchSize; offset += c.chunkSize {
		offsets = append(offsets, offset)
	}

	c.logger.Debug().
		Int("pages", len(offsets)).
		Int("chunk_size", c.chunkSize).
		Msg("fetching collision records")

	pages := make([][]incident.RawRecord, len(offsets))
	errs := make([]error, len(offsets))

	var wg sync.WaitGroup
	for i, offset := range offsets {
		wg.Add(1)
		go func(i, offset int) {
			defer wg.Done()
			pages[i], errs[i] = c.fetchPage(ctx, offset)
		}(i, offset)
	}
	wg.Wait()

	var records []incident.RawRecord
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetching page at offset %d: %w", offsets[i], err)
		}
		records = append(records, pages[i]...)
	}

	c.logger.Info().
		Int("record_count", len(records)).
		Msg("fetched collision records")

	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]incident.RawRecord, error) {
	params := url.Values{}
	params.Set("$limit", strconv.Itoa(c.chunkSize))
	params.Set("$offset", strconv.Itoa(offset))
	params.Set("$order", "crash_date DESC")
	if !c.sinceDate.IsZero() {
		params.Set("$where", fmt.Sprintf("crash_date >= '%s'", c.sinceDate.Format("2006-01-02T15:04:05.000")))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	// Socrata rows are flat objects with string and numeric values; numbers
	// are normalized to their string form so downstream parsing is uniform.
	var rows []map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]incident.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := make(incident.RawRecord, len(row))
		for key, val := range row {
			rec[key] = rawToString(val)
		}
		records = append(records, rec)
	}

	return records, nil
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}
