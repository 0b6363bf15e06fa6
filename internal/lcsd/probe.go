// Package lcsd fetches and parses LCSD athletic-field pages.
package lcsd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// Facility-type id for athletic fields.
	DefaultFTID = 38

	// Marker appearing on LCSD "page not found" responses.
	ErrorIndicator = "Sorry, the page you requested cannot be found"
)

// Client fetches LCSD facility detail pages.
type Client struct {
	BaseURL string
	FTID    int
	Delay   time.Duration
	HTTP    *http.Client
}

func NewClient(baseURL string, delay time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		FTID:    DefaultFTID,
		Delay:   delay,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchPage retrieves the detail page for a DID. Returns ok=false when the
// page resolves to the LCSD error page.
func (c *Client) FetchPage(ctx context.Context, did int) (html string, ok bool, err error) {
	url := fmt.Sprintf("%s?ftid=%d&fcid=&did=%d", c.BaseURL, c.FTID, did)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("lcsd: unexpected status %d for did %d", resp.StatusCode, did)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", false, err
	}

	page := string(body)
	return page, isValidPage(page), nil
}

func isValidPage(html string) bool {
	return !strings.Contains(html, ErrorIndicator)
}

// ProbeResult is the outcome of one DID range sweep.
type ProbeResult struct {
	ValidDIDs []string `json:"valid_dids"`
	Checked   int      `json:"checked"`
	Timestamp string   `json:"timestamp"`
}

// Probe sweeps DIDs in [start, end] sequentially with a polite delay,
// collecting the ones that resolve to real facility pages. Fetch failures
// skip the DID rather than aborting the sweep.
func (c *Client) Probe(ctx context.Context, start, end int) (*ProbeResult, error) {
	result := &ProbeResult{
		ValidDIDs: []string{},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for did := start; did <= end; did++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result.Checked++
		_, ok, err := c.FetchPage(ctx, did)
		if err == nil && ok {
			result.ValidDIDs = append(result.ValidDIDs, strconv.Itoa(did))
		}

		if c.Delay > 0 && did < end {
			select {
			case <-time.After(c.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return result, nil
}
