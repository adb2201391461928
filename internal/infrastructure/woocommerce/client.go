package woocommerce

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
	"golang.org/x/time/rate"

	"intranet-backend/internal/domains/taxonomy/model"
)

const (
	apiPath             = "/wp-json/wc/v3"
	defaultReadTimeout  = 20 * time.Second
	defaultWriteTimeout = 60 * time.Second
	listPageSize        = 100

	codeTermExists   = "term_exists"
	codeCouponExists = "woocommerce_rest_coupon_code_already_exists"
)

// StoreConfig holds the REST credentials of one WooCommerce store.
type StoreConfig struct {
	Platform       string
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RatePerSecond  float64
	Burst          int
}

// Client talks to the WooCommerce REST API v3 of one store.
type Client struct {
	platform     string
	baseURL      string
	key          string
	secret       string
	httpClient   *http.Client
	limiter      *rate.Limiter
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewClient creates a store client. A zero rate disables pacing.
func NewClient(cfg StoreConfig) *Client {
	c := &Client{
		platform:     cfg.Platform,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		key:          cfg.ConsumerKey,
		secret:       cfg.ConsumerSecret,
		httpClient:   &http.Client{},
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		limiter:      rate.NewLimiter(rate.Inf, 0),
	}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if c.readTimeout <= 0 {
		c.readTimeout = defaultReadTimeout
	}
	if c.writeTimeout <= 0 {
		c.writeTimeout = defaultWriteTimeout
	}
	return c
}

// Platform returns the origin platform this store serves.
func (c *Client) Platform() string {
	return c.platform
}

type attributeDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type termDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type couponDTO struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Amount       string `json:"amount"`
	DiscountType string `json:"discount_type"`
	Description  string `json:"description"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status     int   `json:"status"`
		ResourceID int64 `json:"resource_id"`
	} `json:"data"`
}

// ========================================
// ATTRIBUTES
// ========================================

// AttributesBySlug queries attributes with a slug filter. Older stores
// ignore the filter and return everything, so callers must check the count.
func (c *Client) AttributesBySlug(ctx context.Context, slug string) ([]model.AttributeDescriptor, error) {
	query := url.Values{"slug": {slug}}
	var dtos []attributeDTO
	if err := c.do(ctx, http.MethodGet, "/products/attributes", query, nil, &dtos); err != nil {
		return nil, err
	}
	return toAttributes(dtos), nil
}

// ListAttributes returns every product attribute of the store.
func (c *Client) ListAttributes(ctx context.Context) ([]model.AttributeDescriptor, error) {
	var dtos []attributeDTO
	if err := c.do(ctx, http.MethodGet, "/products/attributes", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return toAttributes(dtos), nil
}

func toAttributes(dtos []attributeDTO) []model.AttributeDescriptor {
	out := make([]model.AttributeDescriptor, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, model.AttributeDescriptor{AttributeID: d.ID, Name: d.Name, Slug: d.Slug})
	}
	return out
}

// ========================================
// TERMS
// ========================================

// CreateTerm creates a term under an attribute. A duplicate slug returns
// *model.TermExistsError pointing at the existing term.
func (c *Client) CreateTerm(ctx context.Context, attributeID int64, in model.TermInput) (*model.DerivedTerm, error) {
	body := map[string]any{"name": in.Name, "slug": in.Slug}
	if in.Description != "" {
		body["description"] = in.Description
	}
	var dto termDTO
	if err := c.do(ctx, http.MethodPost, termsPath(attributeID), nil, body, &dto); err != nil {
		return nil, err
	}
	log.Debug().
		Str("platform", c.platform).
		Int64("attribute_id", attributeID).
		Int64("term_id", dto.ID).
		Str("slug", dto.Slug).
		Msg("woocommerce term created")
	return toTerm(dto), nil
}

// FetchTerm reads a term by id.
func (c *Client) FetchTerm(ctx context.Context, attributeID, termID int64) (*model.DerivedTerm, error) {
	var dto termDTO
	if err := c.do(ctx, http.MethodGet, termPath(attributeID, termID), nil, nil, &dto); err != nil {
		return nil, err
	}
	return toTerm(dto), nil
}

// FetchTermBySlug returns the term whose slug equals slug exactly.
func (c *Client) FetchTermBySlug(ctx context.Context, attributeID int64, slug string) (*model.DerivedTerm, error) {
	query := url.Values{"slug": {slug}, "per_page": {strconv.Itoa(listPageSize)}}
	var dtos []termDTO
	if err := c.do(ctx, http.MethodGet, termsPath(attributeID), query, nil, &dtos); err != nil {
		return nil, err
	}
	for _, d := range dtos {
		if d.Slug == slug {
			return toTerm(d), nil
		}
	}
	return nil, model.NewNotFoundError(model.SideWooCommerce, fmt.Sprintf("No existe un término con slug %q", slug))
}

// DeleteTerm permanently removes a term.
func (c *Client) DeleteTerm(ctx context.Context, attributeID, termID int64) error {
	return c.do(ctx, http.MethodDelete, termPath(attributeID, termID), url.Values{"force": {"true"}}, nil, nil)
}

func termsPath(attributeID int64) string {
	return fmt.Sprintf("/products/attributes/%d/terms", attributeID)
}

func termPath(attributeID, termID int64) string {
	return fmt.Sprintf("/products/attributes/%d/terms/%d", attributeID, termID)
}

func toTerm(d termDTO) *model.DerivedTerm {
	return &model.DerivedTerm{DerivedID: d.ID, Name: d.Name, Slug: d.Slug, Description: d.Description}
}

// ========================================
// COUPONS
// ========================================

// CreateCoupon creates a coupon. A duplicate code returns *model.TermExistsError.
func (c *Client) CreateCoupon(ctx context.Context, in model.CouponInput) (*model.DerivedTerm, error) {
	body := map[string]any{"code": in.Code}
	if in.DiscountType != "" {
		body["discount_type"] = in.DiscountType
	}
	if !in.Amount.IsZero() {
		body["amount"] = in.Amount.StringFixed(2)
	}
	if in.Description != "" {
		body["description"] = in.Description
	}
	var dto couponDTO
	if err := c.do(ctx, http.MethodPost, "/coupons", nil, body, &dto); err != nil {
		return nil, err
	}
	log.Debug().
		Str("platform", c.platform).
		Int64("coupon_id", dto.ID).
		Str("code", dto.Code).
		Msg("woocommerce coupon created")
	return toCoupon(dto), nil
}

// FetchCoupon reads a coupon by id.
func (c *Client) FetchCoupon(ctx context.Context, couponID int64) (*model.DerivedTerm, error) {
	var dto couponDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/coupons/%d", couponID), nil, nil, &dto); err != nil {
		return nil, err
	}
	return toCoupon(dto), nil
}

// FetchCouponByCode finds a coupon by code, case-insensitively as WooCommerce stores codes lowercased.
func (c *Client) FetchCouponByCode(ctx context.Context, code string) (*model.DerivedTerm, error) {
	var dtos []couponDTO
	if err := c.do(ctx, http.MethodGet, "/coupons", url.Values{"code": {code}}, nil, &dtos); err != nil {
		return nil, err
	}
	for _, d := range dtos {
		if strings.EqualFold(d.Code, code) {
			return toCoupon(d), nil
		}
	}
	return nil, model.NewNotFoundError(model.SideWooCommerce, fmt.Sprintf("No existe un cupón con código %q", code))
}

// DeleteCoupon permanently removes a coupon.
func (c *Client) DeleteCoupon(ctx context.Context, couponID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/coupons/%d", couponID), url.Values{"force": {"true"}}, nil, nil)
}

func toCoupon(d couponDTO) *model.DerivedTerm {
	return &model.DerivedTerm{DerivedID: d.ID, Code: d.Code, Description: d.Description}
}

// ========================================
// TRANSPORT
// ========================================

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	timeout := c.readTimeout
	if method != http.MethodGet {
		timeout = c.writeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		// Wait refuses up front when the next token lands after the deadline.
		if ctx.Err() == nil {
			return model.NewTimeoutError(model.SideWooCommerce, err)
		}
		return transportError(ctx, err)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("woocommerce: encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	reqURL := c.baseURL + apiPath + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("woocommerce: create request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, err)
	}

	log.Debug().
		Str("platform", c.platform).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("woocommerce response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return model.NewUpstreamError(model.SideWooCommerce, resp.StatusCode, "Respuesta de WooCommerce no válida", err)
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return model.NewTimeoutError(model.SideWooCommerce, err)
	}
	return model.NewUpstreamError(model.SideWooCommerce, 0, "No se pudo contactar con WooCommerce", err)
}

// parseErrorResponse maps a WooCommerce error body onto the domain errors.
func parseErrorResponse(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	message := apiErr.Message
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case apiErr.Code == codeTermExists || apiErr.Code == codeCouponExists:
		return &model.TermExistsError{ResourceID: apiErr.Data.ResourceID, Code: apiErr.Code, Message: message}
	case status == http.StatusNotFound:
		return model.NewNotFoundError(model.SideWooCommerce, message)
	}

	te := model.NewUpstreamError(model.SideWooCommerce, status, message, nil)
	if apiErr.Code != "" {
		te = te.WithDetails(map[string]any{"code": apiErr.Code})
	}
	return te
}
