// Package boardctl is a terminal client for a running leaderboard service.
// Each command posts one board event, waits for the view it produced, and
// prints it.
package boardctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/internal/domain/types"
)

// DefaultPollInterval is how often Await re-reads the view.
const DefaultPollInterval = 200 * time.Millisecond

const maxResponseBytes = 1 << 20

// Client talks to the HTTP API of the service.
type Client struct {
	baseURL string
	http    *http.Client
	poll    time.Duration
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		poll:    DefaultPollInterval,
	}
}

// Ack is the service reply to a posted event.
type Ack struct {
	Status string `json:"status"`
	types.Receipt
}

type eventRequest struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Value   string `json:"value,omitempty"`
	TS      string `json:"ts"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Submit posts one event with a fresh id.
func (c *Client) Submit(ctx context.Context, kind model.EventKind, value string) (Ack, error) {
	body, err := json.Marshal(eventRequest{
		EventID: uuid.NewString(),
		Type:    string(kind),
		Value:   value,
		TS:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Ack{}, fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return Ack{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ack Ack
	if err := c.do(req, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}

// View fetches the current view.
func (c *Client) View(ctx context.Context) (*types.View, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/view", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	var v types.View
	if err := c.do(req, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Await polls the view until it reflects the event numbered seq and is not
// loading. A seq of 0 waits only for loading to finish.
func (c *Client) Await(ctx context.Context, seq uint64) (*types.View, error) {
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for {
		v, err := c.View(ctx)
		if err != nil {
			return nil, err
		}
		if v.Applied >= seq && !v.Loading {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Apply submits an event and waits for the resulting view. A duplicate ack
// returns the current view.
func (c *Client) Apply(ctx context.Context, kind model.EventKind, value string) (*types.View, error) {
	ack, err := c.Submit(ctx, kind, value)
	if err != nil {
		return nil, err
	}
	if ack.Duplicate {
		return c.View(ctx)
	}
	return c.Await(ctx, ack.Seq)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}
	switch {
	case resp.StatusCode == http.StatusServiceUnavailable && req.Method == http.MethodGet:
		return ErrNoView
	case resp.StatusCode >= http.StatusBadRequest:
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			return fmt.Errorf("%w: %d %s: %s", ErrRejected, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%w: %d", ErrRejected, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRequest, req.URL.Path, err)
	}
	return nil
}

// Terms fetches the selectable terms.
func (c *Client) Terms(ctx context.Context) ([]types.TermOption, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/terms", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	var terms []types.TermOption
	if err := c.do(req, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}
