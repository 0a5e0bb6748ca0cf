// Package client talks to the analysis service over HTTP.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/pcapview/internal/metrics"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// RequestIDHeader is sent on every outbound call so service logs can be correlated.
const RequestIDHeader = "X-Request-ID"

const (
	endpointUpload  = "upload"
	endpointHistory = "history"
	endpointRecord  = "record"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds each call including the analysis itself. Zero means no limit.
	Timeout time.Duration
	// HTTPClient overrides the default transport. Tests use it.
	HTTPClient *http.Client
}

// Client is the analysis service API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the service at cfg.BaseURL.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: hc,
	}
}

// BaseURL returns the service root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload streams a capture file to the service and waits for the analysis.
// The body is sent as multipart form field "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out model.UploadResponse
	if err := c.do(req, endpointUpload, &out); err != nil {
		pr.CloseWithError(err)
		return nil, err
	}
	return &out, nil
}

// History fetches limit records starting at offset skip.
func (c *Client) History(ctx context.Context, skip, limit int) (*model.HistoryPage, error) {
	if skip < 0 || limit < 1 {
		return nil, fmt.Errorf("invalid history window skip=%d limit=%d", skip, limit)
	}
	q := url.Values{}
	q.Set("skip", strconv.Itoa(skip))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/history?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var page model.HistoryPage
	if err := c.do(req, endpointHistory, &page); err != nil {
		return nil, err
	}
	if page.TotalCount < 0 {
		return nil, &TransportError{Op: "GET /api/history", Err: fmt.Errorf("negative total_count %d", page.TotalCount)}
	}
	return &page, nil
}

// Record fetches one analysis record. A missing id yields an error matching ErrNotFound.
func (c *Client) Record(ctx context.Context, id int64) (*model.AnalysisRecord, error) {
	path := "/api/history/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var rec model.AnalysisRecord
	if err := c.do(req, endpointRecord, &rec); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		util.Warn("Inconsistent record from service: %v", err)
	}
	return &rec, nil
}

func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	reqID := uuid.New().String()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	op := req.Method + " " + req.URL.Path

	log := util.L().With(zap.String("request_id", reqID), zap.String("endpoint", endpoint))
	start := time.Now()
	defer func() {
		metrics.ServiceRequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		log.Warn("service call failed", zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		log.Warn("reading service response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ServiceRequestsTotal.WithLabelValues(endpoint, "service_error").Inc()
		se := &ServiceError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     decodeDetail(body),
		}
		log.Warn("service returned error", zap.Int("status", resp.StatusCode), zap.String("detail", se.Detail))
		return se
	}

	if err := json.Unmarshal(body, out); err != nil {
		metrics.ServiceRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		log.Warn("decoding service response failed", zap.Error(err))
		return &TransportError{Op: op, Err: fmt.Errorf("decode: %w", err)}
	}

	metrics.ServiceRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	log.Debug("service call ok", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return nil
}
