// Package client implements the HTTP client for a remote company backend.
// It speaks the /api/remote/* surface: connectivity probe, schema fetch, and
// paginated record CRUD, authenticated with a shared secret header.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tablekit/remotectl/internal/config"
	"github.com/tablekit/remotectl/internal/observability"
	"github.com/tablekit/remotectl/model"
)

// SecretHeader is the shared-secret authentication header.
const SecretHeader = "X-Remote-Secret"

// Client talks to one company's backend. All methods are safe for concurrent
// use; connection status updates are serialized internally.
type Client struct {
	baseURL        *url.URL
	secret         string
	http           *http.Client
	logger         *zap.Logger
	requestTimeout time.Duration
	maxBodyBytes   int64

	status *StatusTracker

	schemaMu sync.Mutex
	schema   *model.Schema
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithStatusListener registers a callback invoked on every connection status
// transition.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Client) { c.status.listener = fn }
}

// New creates a client for the given company. The company URL must be a
// valid absolute http or https URL.
func New(company model.Company, cfg config.ClientConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(company.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, model.NewInvalidURLError(company.URL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, model.NewInvalidURLError(company.URL)
	}

	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	resourceTimeout := cfg.ResourceTimeout
	if resourceTimeout <= 0 {
		resourceTimeout = 60 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}

	// Two timeouts bound every exchange: the request timeout is a per-call
	// context deadline applied in do, the resource timeout is the hard
	// whole-exchange ceiling including the body read.
	c := &Client{
		baseURL: base,
		secret:  company.Secret,
		http: &http.Client{
			Timeout: resourceTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger:         zap.NewNop(),
		requestTimeout: requestTimeout,
		maxBodyBytes:   maxBody,
		status:         NewStatusTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Status returns the current connection status.
func (c *Client) Status() Status {
	return c.status.Current()
}

// CheckAccess probes the backend for reachability and secret validity. When
// the probe endpoint itself is missing (404), it falls back to a plain GET of
// the base URL: any response below 500 means the host is reachable.
func (c *Client) CheckAccess(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "remote.check_access")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	c.status.Set(StateConnecting, "")

	resp, body, err := c.do(ctx, http.MethodGet, "/api/remote/check-access", nil)
	if err != nil {
		c.status.Set(StateFailed, err.Error())
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		err = c.checkAccessFallback(ctx)
		return err
	}

	if err = c.classify(resp.StatusCode, body); err != nil {
		c.status.Set(StateFailed, err.Error())
		return err
	}

	c.status.Set(StateConnected, "")
	return nil
}

// checkAccessFallback probes the bare base URL. Older backends do not expose
// the check-access endpoint; a response of any status below 500 still proves
// the host is there.
func (c *Client) checkAccessFallback(ctx context.Context) error {
	resp, _, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		c.status.Set(StateFailed, err.Error())
		return err
	}
	if resp.StatusCode >= 500 {
		err := model.NewHTTPStatusError(resp.StatusCode)
		c.status.Set(StateFailed, err.Error())
		return err
	}
	c.status.Set(StateConnected, "")
	return nil
}

// FetchSchema retrieves and parses the table schema for this company. The
// schema is fetched once per client and served from memory afterwards; use
// RefreshSchema to force a re-fetch.
func (c *Client) FetchSchema(ctx context.Context) (*model.Schema, error) {
	c.schemaMu.Lock()
	cached := c.schema
	c.schemaMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	return c.RefreshSchema(ctx)
}

// RefreshSchema re-fetches the schema, replacing the cached copy wholesale.
func (c *Client) RefreshSchema(ctx context.Context) (*model.Schema, error) {
	ctx, span := observability.StartSpan(ctx, "remote.fetch_schema")
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	body, err := c.get(ctx, "/api/remote/schema")
	if err != nil {
		return nil, err
	}

	schema, err := model.ParseSchema(body)
	if err != nil {
		return nil, err
	}

	c.schemaMu.Lock()
	c.schema = schema
	c.schemaMu.Unlock()

	return schema, nil
}

// FetchResult is the outcome of a record listing: one page of decoded records
// plus the pagination envelope describing where it sits in the full set.
type FetchResult struct {
	Records []model.Record
	Page    model.PageInfo
}

// ListRecords fetches one page of records from a table. Page numbers start
// at 1.
func (c *Client) ListRecords(ctx context.Context, table string, page, limit int) (*FetchResult, error) {
	ctx, span := observability.StartSpan(ctx, "remote.list_records",
		observability.AttrTable.String(table),
		observability.AttrPage.Int(page),
		observability.AttrPageLimit.Int(limit),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, c.tablePath(table)+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	pg, err := model.ParsePage(body, func(raw json.RawMessage) (model.Record, error) {
		rec, err := model.ParseRecord(raw)
		if err != nil {
			return model.Record{}, err
		}
		return *rec, nil
	})
	if err != nil {
		return nil, err
	}

	c.warnDropped(table, pg.Items)

	return &FetchResult{Records: pg.Items, Page: pg.Info}, nil
}

// GetRecord fetches a single record by its wire id.
func (c *Client) GetRecord(ctx context.Context, table, id string) (*model.Record, error) {
	ctx, span := observability.StartSpan(ctx, "remote.get_record",
		observability.AttrTable.String(table),
		observability.AttrRecordID.String(id),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	body, err := c.get(ctx, c.recordPath(table, id))
	if err != nil {
		return nil, err
	}

	rec, err := model.ParseRecord(body)
	if err != nil {
		return nil, err
	}
	c.warnDropped(table, []model.Record{*rec})
	return rec, nil
}

// CreateRecord posts a new record and returns the server's view of it. The
// returned record keeps the input's local id so callers can correlate it with
// what they submitted.
func (c *Client) CreateRecord(ctx context.Context, table string, rec *model.Record) (*model.Record, error) {
	ctx, span := observability.StartSpan(ctx, "remote.create_record",
		observability.AttrTable.String(table),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	payload, err := rec.EncodeCreate()
	if err != nil {
		return nil, err
	}

	resp, body, err := c.do(ctx, http.MethodPost, c.tablePath(table), payload)
	if err != nil {
		return nil, err
	}
	if err = c.classify(resp.StatusCode, body); err != nil {
		return nil, err
	}

	created, err := model.ParseRecord(body)
	if err != nil {
		return nil, err
	}
	created.LocalID = rec.LocalID
	c.warnDropped(table, []model.Record{*created})
	return created, nil
}

// UpdateRecord puts an edited record back. The URL and payload both carry the
// record's wire id, which prefers the server-assigned id over the local one.
func (c *Client) UpdateRecord(ctx context.Context, table string, rec *model.Record) (*model.Record, error) {
	ctx, span := observability.StartSpan(ctx, "remote.update_record",
		observability.AttrTable.String(table),
		observability.AttrRecordID.String(rec.WireID()),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	payload, err := rec.EncodeUpdate()
	if err != nil {
		return nil, err
	}

	resp, body, err := c.do(ctx, http.MethodPut, c.recordPath(table, rec.WireID()), payload)
	if err != nil {
		return nil, err
	}
	if err = c.classify(resp.StatusCode, body); err != nil {
		return nil, err
	}

	updated, err := model.ParseRecord(body)
	if err != nil {
		return nil, err
	}
	updated.LocalID = rec.LocalID
	c.warnDropped(table, []model.Record{*updated})
	return updated, nil
}

// DeleteRecord removes a record by its wire id.
func (c *Client) DeleteRecord(ctx context.Context, table string, rec *model.Record) error {
	ctx, span := observability.StartSpan(ctx, "remote.delete_record",
		observability.AttrTable.String(table),
		observability.AttrRecordID.String(rec.WireID()),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	resp, body, err := c.do(ctx, http.MethodDelete, c.recordPath(table, rec.WireID()), nil)
	if err != nil {
		return err
	}
	err = c.classify(resp.StatusCode, body)
	return err
}

// --- request plumbing ---

func (c *Client) tablePath(table string) string {
	return "/api/remote/" + url.PathEscape(table)
}

func (c *Client) recordPath(table, id string) string {
	return c.tablePath(table) + "/" + url.PathEscape(id)
}

// get performs a GET and returns the body of a 2xx response, classifying
// everything else into an error.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	resp, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := c.classify(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// do executes a single HTTP exchange and reads the response body up to the
// configured cap. Transport failures come back as NETWORK_ERROR envelopes.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	reqURL := c.baseURL.String() + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, nil, model.NewInvalidURLError(reqURL)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(SecretHeader, sanitizeHeader(c.secret))
	observability.InjectTraceHeaders(ctx, req.Header)

	c.logRequest(ctx, method, reqURL, body)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, model.NewNetworkError(ctx.Err())
		}
		return nil, nil, model.NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, nil, model.NewInvalidResponseError(err)
	}

	c.logResponse(ctx, method, reqURL, resp.StatusCode, respBody)

	return resp, respBody, nil
}

// classify maps a response status to an error. 2xx passes. A 400 body is
// first offered to the validation-error parser; everything else becomes a
// status-classified envelope.
func (c *Client) classify(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	if status == http.StatusBadRequest {
		if verr := model.ParseValidationError(body); verr != nil {
			return verr
		}
	}
	return model.NewHTTPStatusError(status)
}

func (c *Client) warnDropped(table string, recs []model.Record) {
	for _, rec := range recs {
		if len(rec.Dropped) > 0 {
			c.logger.Warn("dropped undecodable record fields",
				zap.String("table", table),
				zap.String("record_id", rec.WireID()),
				zap.Strings("fields", rec.Dropped),
			)
		}
	}
}

func (c *Client) logRequest(ctx context.Context, method, reqURL string, body []byte) {
	if !c.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", reqURL),
	}
	if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if parsed := redactedBody(body); parsed != nil {
		fields = append(fields, zap.Any("body", parsed))
	}
	c.logger.Debug("request", fields...)
}

func (c *Client) logResponse(ctx context.Context, method, reqURL string, status int, body []byte) {
	if !c.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.Int("status", status),
	}
	if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if parsed := redactedBody(body); parsed != nil {
		fields = append(fields, zap.Any("body", parsed))
	}
	c.logger.Debug("response", fields...)
}

func redactedBody(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	return observability.RedactBody(parsed, nil)
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
