// Package sheet fetches roster tables from a Google Sheets gviz endpoint.
package sheet

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"golang.org/x/time/rate"

	"github.com/okian/attendboard/internal/domain/model"
	"github.com/okian/attendboard/pkg/logger"
	"github.com/okian/attendboard/pkg/metrics"
)

const (
	defaultBaseURL = "https://docs.google.com"
	defaultGID     = "0"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

var (
	statusPath  = jp.MustParseString("$.status")
	errorsPath  = jp.MustParseString("$.errors[*]")
	colsPath    = jp.MustParseString("$.table.cols[*]")
	rowsPath    = jp.MustParseString("$.table.rows[*]")
	cellsPath   = jp.MustParseString("$.c")
	detailPath  = jp.MustParseString("$.detailed_message")
	messagePath = jp.MustParseString("$.message")
)

// Source returns the raw roster table for a term key.
type Source interface {
	Fetch(ctx context.Context, term string) (model.RawTable, error)
}

// Client reads one spreadsheet; each term is a tab named by its key.
type Client struct {
	sheetID string
	baseURL string
	gid     string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	logger  logger.Logger
}

// New creates a client for sheetID.
func New(sheetID string, opts ...Option) *Client {
	c := &Client{
		sheetID: strings.TrimSpace(sheetID),
		baseURL: defaultBaseURL,
		gid:     defaultGID,
		timeout: defaultTimeout,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the gviz query URL for term. An empty term selects the
// configured gid instead of a named tab.
func (c *Client) URL(term string) string {
	q := url.Values{}
	q.Set("tqx", "out:json")
	if term = strings.TrimSpace(term); term != "" {
		q.Set("sheet", term)
	} else {
		q.Set("gid", c.gid)
	}
	return fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?%s",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.sheetID), q.Encode())
}

// Fetch downloads and decodes the tab for term.
func (c *Client) Fetch(ctx context.Context, term string) (model.RawTable, error) {
	if c.sheetID == "" {
		return model.RawTable{}, ErrNoSheet
	}
	start := time.Now()
	defer func() {
		metrics.RecordFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordFetchError("rate_limit")
		return model.RawTable{}, fmt.Errorf("%w: rate limiter: %w", ErrFetch, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(term), http.NoBody)
	if err != nil {
		metrics.RecordFetchError("request")
		return model.RawTable{}, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordFetchError("transport")
		return model.RawTable{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordFetchError("transport")
		return model.RawTable{}, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordFetchError("status")
		return model.RawTable{}, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	table, err := Decode(body)
	if err != nil {
		metrics.RecordFetchError("payload")
		return model.RawTable{}, err
	}
	c.logger.Debug(ctx, "fetched roster",
		logger.String("term", term),
		logger.Int("columns", len(table.Columns)),
		logger.Int("rows", len(table.Rows)),
		logger.Duration("took", time.Since(start)),
	)
	return table, nil
}

// Decode parses a gviz response. The JSON payload may be wrapped in a
// JavaScript callback, which is stripped.
func Decode(body []byte) (model.RawTable, error) {
	payload := string(body)
	open, end := strings.IndexByte(payload, '{'), strings.LastIndexByte(payload, '}')
	if open < 0 || end < open {
		return model.RawTable{}, fmt.Errorf("%w: no JSON payload", ErrFetch)
	}

	doc, err := oj.ParseString(payload[open : end+1])
	if err != nil {
		return model.RawTable{}, fmt.Errorf("%w: parse payload: %w", ErrFetch, err)
	}

	if status, _ := statusPath.First(doc).(string); status == "error" {
		msg := "unknown error"
		for _, e := range errorsPath.Get(doc) {
			if m, ok := detailPath.First(e).(string); ok && m != "" {
				msg = m
				break
			}
			if m, ok := messagePath.First(e).(string); ok && m != "" {
				msg = m
				break
			}
		}
		return model.RawTable{}, fmt.Errorf("%w: %s", ErrFetch, msg)
	}

	var table model.RawTable
	for _, col := range colsPath.Get(doc) {
		table.Columns = append(table.Columns, columnLabel(col))
	}
	for _, row := range rowsPath.Get(doc) {
		cells, _ := cellsPath.First(row).([]any)
		out := make([]model.Cell, len(cells))
		for i, cell := range cells {
			out[i] = cellValue(cell)
		}
		table.Rows = append(table.Rows, out)
	}
	return table, nil
}

func columnLabel(col any) string {
	m, _ := col.(map[string]any)
	if label, _ := m["label"].(string); strings.TrimSpace(label) != "" {
		return strings.TrimSpace(label)
	}
	id, _ := m["id"].(string)
	return strings.TrimSpace(id)
}

func cellValue(cell any) model.Cell {
	m, ok := cell.(map[string]any)
	if !ok {
		return nil
	}
	switch v := m["v"].(type) {
	case string, float64, int64, bool:
		return v
	default:
		return nil
	}
}
