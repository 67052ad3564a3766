// Package panelapp is a client for the Genomics England PanelApp REST API.
package panelapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/cadd-thresholds/internal/panel"
)

// DefaultBaseURL is the public PanelApp API root.
const DefaultBaseURL = "https://panelapp.genomicsengland.co.uk/api/v1"

// ErrRetriesExhausted is returned when every attempt hit a retryable failure.
var ErrRetriesExhausted = errors.New("panelapp: retries exhausted")

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("panelapp: GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Client fetches panels from PanelApp. Requests that fail with a transport
// error, HTTP 429 or a 5xx status are retried with exponential backoff;
// 429 responses honor Retry-After.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		maxRetries: 5,
		backoff:    time.Second,
		logger:     zap.NewNop(),
		sleep:      sleepContext,
	}
}

// SetRetryPolicy sets the number of attempts and the base backoff; attempt
// n waits backoff * 2^n.
func (c *Client) SetRetryPolicy(maxRetries int, backoff time.Duration) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	c.maxRetries = maxRetries
	c.backoff = backoff
}

// SetLogger sets the logger for retry and progress messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// getJSON GETs url and decodes a 200 response body into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		wait := c.backoff * time.Duration(1<<attempt)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("request failed, backing off",
				zap.String("url", url), zap.Error(err),
				zap.Duration("wait", wait), zap.Int("attempt", attempt+1), zap.Int("max", c.maxRetries))
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(v)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s: %w", url, err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if d, ok := retryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				wait = d
			}
			drain(resp)
			c.logger.Warn("rate limited",
				zap.String("url", url), zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1), zap.Int("max", c.maxRetries))

		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			drain(resp)
			c.logger.Warn("server error, backing off",
				zap.String("url", url), zap.Int("status", resp.StatusCode),
				zap.Duration("wait", wait), zap.Int("attempt", attempt+1), zap.Int("max", c.maxRetries))

		default:
			drain(resp)
			return &StatusError{URL: url, StatusCode: resp.StatusCode}
		}

		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("GET %s: %w", url, ErrRetriesExhausted)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}

// retryAfter parses a Retry-After header given as seconds or an HTTP date.
func retryAfter(h string, now time.Time) (time.Duration, bool) {
	if h == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
		return 0, true
	}
	return 0, false
}

type panelJSON struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type pageJSON[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

type geneJSON struct {
	GeneData struct {
		GeneSymbol string `json:"gene_symbol"`
	} `json:"gene_data"`
}

// ListPanels returns the id, name and version of every panel on the first
// pages result pages. Pages that cannot be fetched are logged and skipped.
func (c *Client) ListPanels(ctx context.Context, pages int) ([]panel.Summary, error) {
	var out []panel.Summary
	for i := 1; i <= pages; i++ {
		var page pageJSON[panelJSON]
		url := fmt.Sprintf("%s/panels/?page=%d", c.baseURL, i)
		if err := c.getJSON(ctx, url, &page); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("skipping panel page", zap.Int("page", i), zap.Error(err))
			continue
		}
		for _, p := range page.Results {
			out = append(out, panel.Summary{PanelID: p.ID, Name: p.Name, Version: p.Version})
		}
		if page.Next == nil {
			break
		}
	}
	c.logger.Info("fetched panel listing", zap.Int("panels", len(out)))
	return out, nil
}

// PanelInfo fetches a panel's metadata and its full gene list, following
// pagination of the genes endpoint.
func (c *Client) PanelInfo(ctx context.Context, panelID int) (panel.Entry, error) {
	var meta panelJSON
	if err := c.getJSON(ctx, fmt.Sprintf("%s/panels/%d/", c.baseURL, panelID), &meta); err != nil {
		return panel.Entry{}, fmt.Errorf("fetch panel %d metadata: %w", panelID, err)
	}

	genes, err := c.panelGenes(ctx, panelID)
	if err != nil {
		return panel.Entry{}, err
	}

	return panel.Entry{
		PanelID:   panelID,
		Name:      meta.Name,
		Version:   meta.Version,
		Genes:     genes,
		GeneCount: len(genes),
	}, nil
}

func (c *Client) panelGenes(ctx context.Context, panelID int) ([]string, error) {
	var genes []string
	url := fmt.Sprintf("%s/panels/%d/genes/", c.baseURL, panelID)
	for url != "" {
		var page pageJSON[geneJSON]
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, fmt.Errorf("fetch genes for panel %d: %w", panelID, err)
		}
		for _, g := range page.Results {
			if s := g.GeneData.GeneSymbol; s != "" {
				genes = append(genes, s)
			}
		}
		url = ""
		if page.Next != nil {
			url = *page.Next
		}
	}
	return genes, nil
}

// FetchAll lists the first pages of panels and fetches each panel's genes,
// stamping entries with now. Panels whose details cannot be fetched are
// skipped.
func (c *Client) FetchAll(ctx context.Context, pages int, now time.Time) ([]panel.Entry, error) {
	listing, err := c.ListPanels(ctx, pages)
	if err != nil {
		return nil, err
	}

	entries := make([]panel.Entry, 0, len(listing))
	for _, s := range listing {
		genes, err := c.panelGenes(ctx, s.PanelID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("skipping panel", zap.Int("panel_id", s.PanelID), zap.String("name", s.Name), zap.Error(err))
			continue
		}
		entries = append(entries, panel.Entry{
			PanelID:     s.PanelID,
			Name:        s.Name,
			Version:     s.Version,
			Genes:       genes,
			GeneCount:   len(genes),
			DateOfCheck: now.Format(panel.DateLayout),
		})
	}
	return entries, nil
}
