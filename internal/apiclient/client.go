// Package apiclient is a typed HTTP client for the engine's backend
// contract. The suggestion ledger, the embeddable widget and the import
// CLI each hold their own instance; nothing is shared between contexts.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logr    *zap.Logger
}

// New builds a client for the given base URL. An empty apiKey disables the
// X-API-Key header. Timeouts live on the transport; callers get no
// request-level retry policy, a failed request settles into their fallback
// path.
func New(baseURL, apiKey string, logr *zap.Logger) *Client {
	if logr == nil {
		logr = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		logr:    logr,
	}
}

// StatusError is a non-2xx backend answer.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logr.Debug("request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Body: string(msg)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, http.MethodPost, path, nil, body, "application/json", out)
}

// ListDocs queries the document list with optional filters.
func (c *Client) ListDocs(ctx context.Context, params models.DocQueryParams) ([]models.Doc, error) {
	q := url.Values{}
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	if params.Theme != "" {
		q.Set("theme", params.Theme)
	}
	if params.DocType != "" {
		q.Set("doc_type", params.DocType)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	var resp models.DocsResponse
	if err := c.getJSON(ctx, "/api/v1/docs", q, &resp); err != nil {
		return nil, err
	}
	return resp.Docs, nil
}

// GetDoc fetches one document's detail record.
func (c *Client) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	var doc models.Doc
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v1/docs/%d", id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListSuggestions fetches the pending suggestions of a document.
func (c *Client) ListSuggestions(ctx context.Context, docID int64) ([]models.Suggestion, error) {
	var resp models.SuggestionsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/v1/docs/%d/suggestions", docID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// AcceptSuggestion promotes a suggestion into a persisted coordinate.
func (c *Client) AcceptSuggestion(ctx context.Context, docID, suggestionID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/v1/docs/%d/suggestions/%d/accept", docID, suggestionID), nil, nil)
}

// RejectSuggestion discards a suggestion.
func (c *Client) RejectSuggestion(ctx context.Context, docID, suggestionID int64) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/v1/docs/%d/suggestions/%d/reject", docID, suggestionID), nil, nil)
}

// AddCoord creates a coordinate on a document.
func (c *Client) AddCoord(ctx context.Context, docID int64, req models.AddCoordRequest) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/v1/docs/%d/coords", docID), req, nil)
}

// UpdateCoord moves an existing coordinate (drag-to-move).
func (c *Client) UpdateCoord(ctx context.Context, docID, coordID int64, req models.UpdateCoordRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/docs/%d/coords/%d", docID, coordID),
		nil, bytes.NewReader(data), "application/json", nil)
}

// GeoJSON fetches the document-derived point collection, bounded by limit.
// Features are validated into the typed property shape before return.
func (c *Client) GeoJSON(ctx context.Context, limit int) (*geojson.FeatureCollection, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.featureCollection(ctx, "/api/v1/geojson", q)
}

// GeoLayer fetches a named static boundary layer.
func (c *Client) GeoLayer(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	return c.featureCollection(ctx, "/api/v1/geo/layers/"+url.PathEscape(name), nil)
}

// AOILayer fetches a named AOI layer.
func (c *Client) AOILayer(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	return c.featureCollection(ctx, "/api/v1/aoi/"+url.PathEscape(name), nil)
}

func (c *Client) featureCollection(ctx context.Context, path string, q url.Values) (*geojson.FeatureCollection, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	if dropped := geo.Sanitize(fc); dropped > 0 {
		c.logr.Warn("quarantined features with invalid properties",
			zap.String("path", path), zap.Int("dropped", dropped))
	}
	return fc, nil
}

// Search runs a text query against the backend search endpoint.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp models.SearchResponse
	if err := c.getJSON(ctx, "/api/v1/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ImportKMZ uploads a geographic file for server-side normalization.
func (c *Client) ImportKMZ(ctx context.Context, fileName string, data []byte, name, theme string, docID int64) (*models.ImportResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if name != "" {
		if err := mw.WriteField("name", name); err != nil {
			return nil, err
		}
	}
	if theme != "" {
		if err := mw.WriteField("theme", theme); err != nil {
			return nil, err
		}
	}
	if docID > 0 {
		if err := mw.WriteField("doc_id", strconv.FormatInt(docID, 10)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var result models.ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/aoi/import_kmz", nil, &buf, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
