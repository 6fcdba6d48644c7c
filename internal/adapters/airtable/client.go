// Package airtable reads check-in records from the Airtable list-records API.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/pkg/logger"
	"github.com/okian/huddle/pkg/metrics"
)

// Defaults for the client.
const (
	DefaultAPIURL  = "https://api.airtable.com"
	DefaultTable   = "Team Data"
	DefaultTimeout = 10 * time.Second

	errorBodyLimit = 512
)

// Client fetches the full record list of one table.
type Client struct {
	apiURL  string
	baseID  string
	token   string
	table   string
	timeout time.Duration
	base    *http.Client
	client  *http.Client
	logger  logger.Logger
}

// listResponse is the list-records envelope. Offset is present when more
// pages exist; only the first page is read.
type listResponse struct {
	Records *[]checkin.Record `json:"records"`
	Offset  string            `json:"offset,omitempty"`
}

// NewClient creates a client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiURL:  DefaultAPIURL,
		table:   DefaultTable,
		timeout: DefaultTimeout,
		base:    http.DefaultClient,
		logger:  logger.Get().Named("airtable"),
	}
	for _, opt := range opts {
		opt(c)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token, TokenType: "Bearer"})
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	c.client = oauth2.NewClient(ctx, ts)
	// oauth2.NewClient does not carry the base client's timeout over.
	c.client.Timeout = c.timeout
	return c
}

// Endpoint returns the list-records URL of the configured table.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.apiURL, "/") + "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

// List fetches every record of the table in source order.
func (c *Client) List(ctx context.Context) ([]checkin.Record, error) {
	if c.baseID == "" || c.token == "" {
		metrics.RecordErrorByComponent("source", "credentials")
		return nil, ErrMissingCredentials
	}

	start := time.Now()
	records, kind, err := c.list(ctx)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordFetchError(kind, latency)
		return nil, err
	}

	metrics.RecordFetch(latency, len(records))
	c.logger.Debug(ctx, "fetched records",
		logger.Int("records", len(records)),
		logger.Float64("latency_ms", latency),
	)
	return records, nil
}

func (c *Client) list(ctx context.Context) ([]checkin.Record, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(), nil)
	if err != nil {
		return nil, "request", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "request", fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, "status", fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out listResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "decode", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if out.Records == nil {
		return nil, "decode", fmt.Errorf("%w: missing records", ErrDecode)
	}
	if out.Offset != "" {
		c.logger.Debug(ctx, "ignoring further pages", logger.String("offset", out.Offset))
	}
	return *out.Records, "", nil
}
