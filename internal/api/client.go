// Package api holds the clients for the external collaborators: the
// expense resource endpoint and the read-only currency/news endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tally/internal/core"
)

// Client talks to the expense resource endpoint. It implements
// store.SnapshotLister for the dashboard engine.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a resource client for the given base URL, e.g.
// "http://127.0.0.1:8000/api".
func NewClient(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// ListRecords fetches the full expense list, most recent first. Records
// with malformed amounts or categories come back flagged/normalized;
// records whose date cannot be parsed are skipped with a log line rather
// than failing the whole snapshot.
func (c *Client) ListRecords(ctx context.Context) ([]core.Record, error) {
	var wires []core.RecordWire
	if err := c.do(ctx, http.MethodGet, "/expenses/", nil, &wires); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	records := make([]core.Record, 0, len(wires))
	for _, w := range wires {
		rec, err := core.FromWire(w)
		if err != nil {
			slog.WarnContext(ctx, "Skipping record with unparseable date", "id", w.ID, "date", w.Date)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// CreateRecord submits a new expense. The id is assigned by the service
// and returned on the created record.
func (c *Client) CreateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	var out core.RecordWire
	if err := c.do(ctx, http.MethodPost, "/expenses/", core.ToWire(r), &out); err != nil {
		return core.Record{}, fmt.Errorf("create expense: %w", err)
	}
	created, err := core.FromWire(out)
	if err != nil {
		return core.Record{}, fmt.Errorf("decode created expense: %w", err)
	}
	return created, nil
}

// UpdateRecord replaces the non-id fields of the record with matching id.
func (c *Client) UpdateRecord(ctx context.Context, r core.Record) (core.Record, error) {
	var out core.RecordWire
	if err := c.do(ctx, http.MethodPut, "/expenses/"+url.PathEscape(r.ID)+"/", core.ToWire(r), &out); err != nil {
		return core.Record{}, fmt.Errorf("update expense %s: %w", r.ID, err)
	}
	updated, err := core.FromWire(out)
	if err != nil {
		return core.Record{}, fmt.Errorf("decode updated expense: %w", err)
	}
	return updated, nil
}

// DeleteRecord removes the expense with the given id.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/expenses/"+url.PathEscape(id)+"/", nil, nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
