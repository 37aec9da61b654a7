// Package airtable is a thin client over the Airtable v0 REST API for the
// orders table. Every call reflects current remote state; nothing is cached.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/martin-wrede/Upload-Images-Nano-Banana-Auto-Full-4/internal/models"
)

const defaultAPIBaseURL = "https://api.airtable.com/v0"

// ErrRecordNotFound is returned by UpdateRecord when the id does not exist
// upstream.
var ErrRecordNotFound = errors.New("record not found")

// pendingScanLimit bounds the most-recent-first lookback when searching for
// a pending record by email.
const pendingScanLimit = 10

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a client for one base/table. apiBaseURL is the Airtable
// API root and may be left empty outside of tests.
func NewClient(apiBaseURL, baseID, tableName, apiKey string) *Client {
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &Client{
		baseURL: fmt.Sprintf("%s/%s/%s", apiBaseURL, baseID, url.PathEscape(tableName)),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError carries the upstream error message and type so handlers can pass
// them through to callers.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("airtable: status %d", e.StatusCode)
}

// ListOptions narrows a record listing. Zero values are omitted from the
// query string.
type ListOptions struct {
	FilterByFormula string
	MaxRecords      int
	SortField       string
	SortDirection   string
}

type recordPage struct {
	Records []models.Record `json:"records"`
	Offset  string          `json:"offset,omitempty"`
}

// ListRecords fetches all pages matching opts and concatenates them. The
// continuation token is followed transparently.
func (c *Client) ListRecords(ctx context.Context, opts ListOptions) ([]models.Record, error) {
	query := url.Values{}
	if opts.FilterByFormula != "" {
		query.Set("filterByFormula", opts.FilterByFormula)
	}
	if opts.MaxRecords > 0 {
		query.Set("maxRecords", strconv.Itoa(opts.MaxRecords))
	}
	if opts.SortField != "" {
		query.Set("sort[0][field]", opts.SortField)
		direction := opts.SortDirection
		if direction == "" {
			direction = "desc"
		}
		query.Set("sort[0][direction]", direction)
	}

	var all []models.Record
	offset := ""
	for {
		q := query
		if offset != "" {
			q = url.Values{}
			for k, v := range query {
				q[k] = v
			}
			q.Set("offset", offset)
		}

		fetchURL := c.baseURL
		if encoded := q.Encode(); encoded != "" {
			fetchURL += "?" + encoded
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		page, err := decodePage(resp)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// FindEligibleRecords returns records created at or after windowStart that
// carry a non-empty order package. Both conditions gate the batch sweep.
func (c *Client) FindEligibleRecords(ctx context.Context, windowStart time.Time) ([]models.Record, error) {
	formula := fmt.Sprintf("AND(IS_AFTER({Timestamp}, '%s'), {Order_Package} != '')",
		windowStart.UTC().Format(time.RFC3339))
	return c.ListRecords(ctx, ListOptions{FilterByFormula: formula})
}

// FindPendingRecordForEmail scans the client's most recent records (bounded
// lookback) for one with test images uploaded but no final images yet.
// A missing match is not an error; the record pointer is nil.
func (c *Client) FindPendingRecordForEmail(ctx context.Context, email string) (*models.Record, error) {
	records, err := c.ListRecords(ctx, ListOptions{
		FilterByFormula: fmt.Sprintf("{Email} = '%s'", email),
		MaxRecords:      pendingScanLimit,
		SortField:       "Created",
		SortDirection:   "desc",
	})
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].State() == models.StatePending {
			return &records[i], nil
		}
	}
	return nil, nil
}

// CreateRecord inserts a new record and returns it as stored upstream.
func (c *Client) CreateRecord(ctx context.Context, fields models.RecordFields) (*models.Record, error) {
	return c.writeRecord(ctx, http.MethodPost, c.baseURL, fields)
}

// UpdateRecord patches only the supplied fields of an existing record.
func (c *Client) UpdateRecord(ctx context.Context, id string, fields models.RecordFields) (*models.Record, error) {
	record, err := c.writeRecord(ctx, http.MethodPatch, c.baseURL+"/"+id, fields)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

func (c *Client) writeRecord(ctx context.Context, method, writeURL string, fields models.RecordFields) (*models.Record, error) {
	body, err := json.Marshal(map[string]models.RecordFields{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, writeURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErrorFromBody(resp.StatusCode, respBody)
	}

	var record models.Record
	if err := json.Unmarshal(respBody, &record); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}
	return &record, nil
}

func decodePage(resp *http.Response) (*recordPage, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiErrorFromBody(resp.StatusCode, body)
	}

	var page recordPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	return &page, nil
}

func apiErrorFromBody(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: statusCode, Message: string(body)}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Type = parsed.Error.Type
		apiErr.Message = parsed.Error.Message
	}
	return apiErr
}
