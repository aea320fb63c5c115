// Package backend talks to the catalog REST service that owns products, media and
// authentication.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shopadmin/internal/domain"
	"shopadmin/internal/productform"
)

type Client struct {
	base        string
	tokenHeader string
	http        *http.Client
	now         func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithTokenHeader(name string) Option { return func(c *Client) { c.tokenHeader = name } }

func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New builds a client rooted at baseURL, e.g. "http://localhost:5000/api".
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		base:        strings.TrimRight(baseURL, "/"),
		tokenHeader: "access_token",
		http:        &http.Client{Timeout: timeout},
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type messageBody struct {
	Message string `json:"message"`
}

type deleteBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type loginBody struct {
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
	Message string      `json:"message"`
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	raw, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return domain.Session{}, err
	}
	var out loginBody
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", "application/json", raw, &out); err != nil {
		return domain.Session{}, err
	}
	if out.Token == "" {
		return domain.Session{}, &domain.RemoteError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	return domain.Session{Token: out.Token, User: out.User}, nil
}

// ListProducts returns every product.
func (c *Client) ListProducts(ctx context.Context, token string) ([]domain.Product, error) {
	var out struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/product/get", token, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// GetProduct fetches by id. The backend may answer with one product or a list.
func (c *Client) GetProduct(ctx context.Context, token, id string) (GetResponse, error) {
	q := url.Values{}
	q.Set("productId", id)
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/product/get?"+q.Encode(), token, "", nil, &raw); err != nil {
		return GetResponse{}, err
	}
	return decodeGetResponse(raw)
}

func (c *Client) CreateProduct(ctx context.Context, token string, p productform.Payload) (string, error) {
	var out messageBody
	if err := c.do(ctx, http.MethodPost, "/product/create-product", token, p.ContentType, p.Body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, p productform.Payload) (string, error) {
	var out messageBody
	path := "/product/update-product/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, token, p.ContentType, p.Body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// DeleteProduct treats a 2xx answer with success=false as a failure.
func (c *Client) DeleteProduct(ctx context.Context, token, id string) (string, error) {
	var out deleteBody
	path := "/product/delete-product/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodDelete, path, token, "", nil, &out); err != nil {
		return "", err
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "Delete was not acknowledged."
		}
		return "", &domain.RemoteError{Status: http.StatusOK, Message: msg}
	}
	return out.Message, nil
}

// UploadCSV sends a CSV file as the multipart field "file".
func (c *Client) UploadCSV(ctx context.Context, token, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	var out messageBody
	if err := c.do(ctx, http.MethodPost, "/product/create-product-by-csv", token, w.FormDataContentType(), buf.Bytes(), &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path, token, contentType string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set(c.tokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func remoteError(resp *http.Response, raw []byte) error {
	var mb messageBody
	_ = json.Unmarshal(raw, &mb)
	msg := mb.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if msg == "" {
		msg = resp.Status
	}
	return &domain.RemoteError{Status: resp.StatusCode, Message: msg}
}

// IsUnauthorized reports a 401/403 from the backend, i.e. the token was rejected.
func IsUnauthorized(err error) bool {
	var rerr *domain.RemoteError
	return errors.As(err, &rerr) && (rerr.Status == http.StatusUnauthorized || rerr.Status == http.StatusForbidden)
}
