package commerce

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
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL       = "http://localhost:3000"
	defaultTimeout       = 10 * time.Second
	defaultUserAgent     = "Shopping-Agent/1.0"
	maxResponseSizeBytes = 2 << 20
)

type Config struct {
	BaseURL   string        `envconfig:"BACKEND_URL" default:"http://localhost:3000"`
	Timeout   time.Duration `envconfig:"BACKEND_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"BACKEND_USER_AGENT" default:"Shopping-Agent/1.0"`
}

// Client talks to the commerce backend. Every call is one blocking request; nothing is retried.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	tracer     trace.Tracer
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("chative/commerce"),
	}, nil
}

func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	params := url.Values{}
	setIfPresent(params, "category", q.Category)
	setIfPresent(params, "color", q.Color)
	setIfPresent(params, "size", q.Size)
	setIfPresent(params, "name", q.Name)
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}

	var out SearchResult
	if _, err := c.do(ctx, http.MethodGet, "/products/search", "/products/search", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var out Product
	if _, err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), "/products/{id}", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCart(ctx context.Context, createdAt time.Time) (*Cart, error) {
	body := map[string]any{
		"created_at": createdAt.Format(time.RFC3339),
	}
	var out Cart
	if _, err := c.do(ctx, http.MethodPost, "/carts", "/carts", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCart returns the decoded cart together with the raw payload the backend sent.
func (c *Client) GetCart(ctx context.Context, cartID string) (*Cart, []byte, error) {
	var out Cart
	raw, err := c.do(ctx, http.MethodGet, "/carts/"+url.PathEscape(cartID), "/carts/{id}", nil, nil, &out)
	if err != nil {
		return nil, nil, err
	}
	return &out, raw, nil
}

func (c *Client) AddCartItem(ctx context.Context, cartID string, variantID int, qty int) error {
	body := map[string]any{
		"product_variant_id": variantID,
		"qty":                qty,
	}
	_, err := c.do(ctx, http.MethodPost, "/carts/"+url.PathEscape(cartID)+"/items", "/carts/{id}/items", nil, body, nil)
	return err
}

func (c *Client) UpdateCartItem(ctx context.Context, cartID string, itemID int, qty int) error {
	path := "/carts/" + url.PathEscape(cartID) + "/items/" + strconv.Itoa(itemID)
	body := map[string]any{
		"qty": qty,
	}
	_, err := c.do(ctx, http.MethodPatch, path, "/carts/{id}/items/{item_id}", nil, body, nil)
	return err
}

func (c *Client) UpdateCart(ctx context.Context, cartID string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	_, err := c.do(ctx, http.MethodPatch, "/carts/"+url.PathEscape(cartID), "/carts/{id}", nil, data, nil)
	return err
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	route string,
	query url.Values,
	body any,
	out any,
) (raw []byte, err error) {
	if c == nil {
		return nil, errors.New("nil commerce client")
	}

	ctx, span := c.tracer.Start(ctx, "commerce."+method+" "+route, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("http.route", route),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Debug().Err(err).Str("method", method).Str("route", route).Msg("commerce request failed")
		}
		span.End()
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", classifyTransportError(err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return raw, nil
}

func setIfPresent(params url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params.Set(key, v)
	}
}
