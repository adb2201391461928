package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"intranet-backend/internal/domains/taxonomy/model"
)

const (
	defaultReadTimeout  = 20 * time.Second
	defaultWriteTimeout = 60 * time.Second
	maxPageSize         = 1000
	readRetryDelay      = 300 * time.Millisecond
)

// Config holds the Strapi connection settings.
type Config struct {
	BaseURL      string
	Token        string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PageSize     int
}

// Client is the Record Store adapter over the Strapi REST API.
// Safe for concurrent use.
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	readTimeout  time.Duration
	writeTimeout time.Duration
	pageSize     int
	retryDelay   time.Duration
}

// NewClient creates a Strapi client. Zero timeouts fall back to 20s for
// reads and 60s for writes.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		token:        cfg.Token,
		httpClient:   &http.Client{},
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		pageSize:     cfg.PageSize,
		retryDelay:   readRetryDelay,
	}
	if c.readTimeout <= 0 {
		c.readTimeout = defaultReadTimeout
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = defaultWriteTimeout
	}
	if c.pageSize <= 0 || c.pageSize > maxPageSize {
		c.pageSize = maxPageSize
	}
	return c
}

// envelope is the Strapi response wrapper for both single and list calls.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Status  int            `json:"status"`
	Name    string         `json:"name"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ========================================
// OPERATIONS
// ========================================

// Create stores a new record and returns it with its linking key: the
// documentId, or the numeric id on v4 deployments.
func (c *Client) Create(ctx context.Context, desc *model.EntityKindDescriptor, fields model.Fields) (*model.TaxonomyRecord, error) {
	if err := model.ValidateCreate(desc, fields); err != nil {
		return nil, err
	}

	body := map[string]any{"data": model.ToUpstream(desc, fields)}
	env, err := c.do(ctx, http.MethodPost, c.collectionPath(desc), nil, body, c.writeTimeout)
	if err != nil {
		if model.IsNotFoundError(err) {
			return nil, model.NewUpstreamError(model.SideStrapi, http.StatusNotFound,
				fmt.Sprintf("La colección %q no existe en Strapi", desc.Collection), err)
		}
		return nil, err
	}

	rec, err := decodeOne(desc, env)
	if err != nil {
		return nil, err
	}
	if rec.LinkingKey == "" {
		return nil, model.NewUpstreamError(model.SideStrapi, 0, "Strapi no devolvió id ni documentId para el registro creado", nil)
	}

	log.Debug().
		Str("kind", string(desc.Kind)).
		Str("document_id", rec.LinkingKey).
		Int64("id", rec.InternalID).
		Msg("strapi record created")
	return rec, nil
}

// FetchByKey resolves a record by numeric id or documentId. A direct GET
// is tried first; on 404 the collection is listed and matched on either key.
func (c *Client) FetchByKey(ctx context.Context, desc *model.EntityKindDescriptor, key string) (*model.TaxonomyRecord, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, model.NewValidationError("Se requiere el identificador "+desc.Label, nil)
	}

	env, err := c.do(ctx, http.MethodGet, c.itemPath(desc, key), nil, nil, c.readTimeout)
	switch {
	case err == nil:
		if rec, decErr := decodeOne(desc, env); decErr == nil && (rec.LinkingKey != "" || rec.InternalID != 0) {
			return rec, nil
		}
	case !model.IsNotFoundError(err):
		return nil, err
	}

	items, err := c.listItems(ctx, desc)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		flat := model.FlattenItem(item)
		if model.ItemString(flat, "documentId") == key || model.ItemString(flat, "id") == key {
			return model.RecordFromUpstream(desc, item), nil
		}
	}
	return nil, model.NewNotFoundError(model.SideStrapi,
		fmt.Sprintf("No se encontró el registro %s con identificador %q", desc.Label, key))
}

// Update writes only the provided fields. Null values clear the field.
func (c *Client) Update(ctx context.Context, desc *model.EntityKindDescriptor, key string, patch model.Fields) (*model.TaxonomyRecord, error) {
	current, err := c.FetchByKey(ctx, desc, key)
	if err != nil {
		return nil, err
	}

	body := map[string]any{"data": model.ToUpstream(desc, patch)}
	env, err := c.do(ctx, http.MethodPut, c.itemPath(desc, resolvedKey(current)), nil, body, c.writeTimeout)
	if err != nil {
		return nil, err
	}

	rec, err := decodeOne(desc, env)
	if err != nil || (rec.LinkingKey == "" && rec.InternalID == 0) {
		merged := *current
		merged.Fields = mergeFields(current.Fields, patch)
		merged.DisplayName = merged.Fields.String(desc.NameField)
		if desc.DescriptionField != "" {
			merged.Description = merged.Fields.StringPtr(desc.DescriptionField)
		}
		return &merged, nil
	}
	return rec, nil
}

// Delete removes a record. Deleting an already removed record returns NOT_FOUND.
func (c *Client) Delete(ctx context.Context, desc *model.EntityKindDescriptor, key string) error {
	current, err := c.FetchByKey(ctx, desc, key)
	if err != nil {
		return err
	}
	if _, err := c.do(ctx, http.MethodDelete, c.itemPath(desc, resolvedKey(current)), nil, nil, c.writeTimeout); err != nil {
		return err
	}

	log.Debug().
		Str("kind", string(desc.Kind)).
		Str("document_id", current.LinkingKey).
		Msg("strapi record deleted")
	return nil
}

// List returns up to the configured page size of records.
func (c *Client) List(ctx context.Context, desc *model.EntityKindDescriptor) ([]*model.TaxonomyRecord, error) {
	items, err := c.listItems(ctx, desc)
	if err != nil {
		return nil, err
	}
	records := make([]*model.TaxonomyRecord, 0, len(items))
	for _, item := range items {
		records = append(records, model.RecordFromUpstream(desc, item))
	}
	return records, nil
}

func (c *Client) listItems(ctx context.Context, desc *model.EntityKindDescriptor) ([]map[string]any, error) {
	query := url.Values{}
	query.Set("pagination[pageSize]", strconv.Itoa(c.pageSize))
	query.Set("pagination[page]", "1")

	env, err := c.do(ctx, http.MethodGet, c.collectionPath(desc), query, nil, c.readTimeout)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, model.NewUpstreamError(model.SideStrapi, 0, "Respuesta de Strapi no válida", err)
	}
	return items, nil
}

// ========================================
// TRANSPORT
// ========================================

func (c *Client) collectionPath(desc *model.EntityKindDescriptor) string {
	return "/api/" + desc.Collection
}

func (c *Client) itemPath(desc *model.EntityKindDescriptor, key string) string {
	return "/api/" + desc.Collection + "/" + url.PathEscape(key)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, timeout time.Duration) (*envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw []byte
	if payload != nil {
		var err error
		if raw, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("strapi: encode body: %w", err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	resp, err := c.send(ctx, method, reqURL, raw)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(ctx, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("strapi response")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		env := &envelope{}
		if len(bytes.TrimSpace(body)) == 0 {
			return env, nil
		}
		if err := json.Unmarshal(body, env); err != nil {
			return nil, model.NewUpstreamError(model.SideStrapi, resp.StatusCode, "Respuesta de Strapi no válida", err)
		}
		return env, nil
	}
	return nil, parseErrorResponse(resp.StatusCode, body)
}

// send executes the request, retrying a GET once on 5xx or network errors.
func (c *Client) send(ctx context.Context, method, reqURL string, body []byte) (*http.Response, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts = 2
	}

	var resp *http.Response
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			log.Warn().Str("url", reqURL).Msg("strapi retry")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("strapi: create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err = c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if ctx.Err() != nil || i == attempts-1 {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
	}
	return resp, err
}

func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return model.NewTimeoutError(model.SideStrapi, err)
	}
	return model.NewUpstreamError(model.SideStrapi, 0, "No se pudo contactar con Strapi", err)
}

func parseErrorResponse(status int, body []byte) error {
	var env envelope
	message := http.StatusText(status)
	var details map[string]any
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		if env.Error.Message != "" {
			message = env.Error.Message
		}
		details = env.Error.Details
	}

	if status == http.StatusNotFound {
		return model.NewNotFoundError(model.SideStrapi, message)
	}
	te := model.NewUpstreamError(model.SideStrapi, status, message, nil)
	if len(details) > 0 {
		te = te.WithDetails(details)
	}
	return te
}

func decodeOne(desc *model.EntityKindDescriptor, env *envelope) (*model.TaxonomyRecord, error) {
	if env == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return &model.TaxonomyRecord{Kind: desc.Kind, Fields: model.Fields{}}, nil
	}
	var item map[string]any
	if err := json.Unmarshal(env.Data, &item); err != nil {
		return nil, model.NewUpstreamError(model.SideStrapi, 0, "Respuesta de Strapi no válida", err)
	}
	return model.RecordFromUpstream(desc, item), nil
}

// resolvedKey prefers documentId; v4 deployments only address records by id.
func resolvedKey(rec *model.TaxonomyRecord) string {
	if rec.LinkingKey != "" {
		return rec.LinkingKey
	}
	return strconv.FormatInt(rec.InternalID, 10)
}

func mergeFields(base, patch model.Fields) model.Fields {
	out := make(model.Fields, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
