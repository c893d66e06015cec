// Package client talks to the remote item collection over REST/JSON.
//
// Every call is stateless and safe for concurrent use. Failures are typed:
// *ValidationError never touches the network, *NotFoundError maps a 404, and
// *TransportError covers network failures and any other non-2xx status.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/optimistic-todo/internal/model"
)

// Store is the operation set the list controller depends on.
type Store interface {
	List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error)
	GetByID(ctx context.Context, id int64) (model.Item, error)
	Create(ctx context.Context, p model.ItemPatch) (model.Item, error)
	Update(ctx context.Context, id int64, p model.ItemPatch) (model.Item, error)
	Remove(ctx context.Context, id int64) error
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns all items matching filter. A zero filter returns everything.
func (c *Client) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	path := "/items"
	if q := filter.Values().Encode(); q != "" {
		path += "?" + q
	}

	items := make([]model.Item, 0)
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil { // "null" body
		items = []model.Item{}
	}
	return items, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (model.Item, error) {
	var it model.Item
	err := c.do(ctx, http.MethodGet, itemPath(id), nil, &it)
	return it, notFound(err, id)
}

// Create validates p locally and stores it. The server assigns the id.
func (c *Client) Create(ctx context.Context, p model.ItemPatch) (model.Item, error) {
	if err := ValidateCreate(p); err != nil {
		return model.Item{}, err
	}

	var it model.Item
	err := c.do(ctx, http.MethodPost, "/items", p, &it)
	return it, err
}

// Update changes only the fields set in p.
func (c *Client) Update(ctx context.Context, id int64, p model.ItemPatch) (model.Item, error) {
	if err := ValidatePatch(p); err != nil {
		return model.Item{}, err
	}

	var it model.Item
	err := c.do(ctx, http.MethodPatch, itemPath(id), p, &it)
	return it, notFound(err, id)
}

func (c *Client) Remove(ctx context.Context, id int64) error {
	return notFound(c.do(ctx, http.MethodDelete, itemPath(id), nil, nil), id)
}

const maxBatchConcurrency = 8

type BatchEntry struct {
	ID     int64
	Fields model.ItemPatch
}

// BatchResult splits a batch into the items that were updated and the ids that
// failed with their cause.
type BatchResult struct {
	Updated []model.Item
	Failed  map[int64]error
}

func (r BatchResult) OK() bool { return len(r.Failed) == 0 }

// BatchUpdate issues one Update per entry concurrently. Entries are
// independent: a failure neither cancels nor rolls back the others. The
// returned error is a *BatchError whenever any entry failed. A batch naming an
// id twice is rejected with a *ValidationError before anything is sent.
func BatchUpdate(ctx context.Context, store Store, entries []BatchEntry) (BatchResult, error) {
	if err := ValidateBatch(entries); err != nil {
		return BatchResult{}, err
	}

	var (
		mu  sync.Mutex
		res = BatchResult{
			Updated: make([]model.Item, 0, len(entries)),
			Failed:  make(map[int64]error),
		}
		updated = make([]*model.Item, len(entries))
	)

	// Not errgroup.WithContext: one failure must not cancel the siblings.
	var g errgroup.Group
	g.SetLimit(maxBatchConcurrency)
	for i, e := range entries {
		g.Go(func() error {
			it, err := store.Update(ctx, e.ID, e.Fields)
			if err != nil {
				mu.Lock()
				res.Failed[e.ID] = err
				mu.Unlock()
				return nil
			}
			updated[i] = &it
			return nil
		})
	}
	g.Wait()

	for _, it := range updated {
		if it != nil {
			res.Updated = append(res.Updated, *it)
		}
	}
	if !res.OK() {
		return res, &BatchError{Failed: res.Failed}
	}
	return res, nil
}

func (c *Client) BatchUpdate(ctx context.Context, entries []BatchEntry) (BatchResult, error) {
	return BatchUpdate(ctx, c, entries)
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.do(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

func (c *Client) Priorities(ctx context.Context) ([]model.Priority, error) {
	var out []model.Priority
	err := c.do(ctx, http.MethodGet, "/priorities", nil, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := c.do(ctx, http.MethodGet, "/stats", nil, &s)
	return s, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	url := c.baseURL + path

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &TransportError{Method: method, URL: url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("url", url),
			zap.Error(err),
		)
		return &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		c.logger.Warn("unexpected status",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
		)
		return &TransportError{Method: method, URL: url, StatusCode: resp.StatusCode}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Method: method, URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func itemPath(id int64) string {
	return fmt.Sprintf("/items/%d", id)
}

// notFound turns a 404 TransportError into a NotFoundError for id.
func notFound(err error, id int64) error {
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return &NotFoundError{ID: id}
	}
	return err
}
