package bookreview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 8 << 20

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthToken replaces the default bearer credential. An empty token
// removes the header from subsequent requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) authToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithBearer sets the bearer credential for one request, overriding the default.
func WithBearer(token string) RequestOption {
	return func(req *http.Request) {
		if token == "" {
			req.Header.Del("Authorization")
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) RequestOption {
	return func(req *http.Request) {
		req.URL.RawQuery = q.Encode()
	}
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out, opts)
}

func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPost, path, in, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodPut, path, in, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out, opts)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.Post(ctx, "/signin", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	return resp.Token, nil
}

func (c *Client) CreateUser(ctx context.Context, name, email, password string) (string, error) {
	var resp tokenResponse
	if err := c.Post(ctx, "/users", credentialsRequest{Name: name, Email: email, Password: password}, &resp); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return resp.Token, nil
}

func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var user User
	if err := c.Get(ctx, "/users", &user); err != nil {
		return User{}, fmt.Errorf("fetch current user: %w", err)
	}
	return user, nil
}

func (c *Client) UpdateUser(ctx context.Context, name string) error {
	if err := c.Put(ctx, "/users", updateUserRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// UploadIcon sends an avatar as multipart form data under the "icon" field
// and returns the URL the service assigned to it.
func (c *Client) UploadIcon(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="icon"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, "/uploads", &buf, mw.FormDataContentType(), &resp, nil); err != nil {
		return "", fmt.Errorf("upload icon: %w", err)
	}
	if resp.IconURL != "" {
		return resp.IconURL, nil
	}
	return resp.LegacyIconURL, nil
}

// ListPublicBooks fetches one page of the public feed.
func (c *Client) ListPublicBooks(ctx context.Context, offset int) ([]Book, error) {
	return c.listBooks(ctx, "/public/books", offset)
}

// ListBooks fetches one page of the personalized feed, which carries isMine.
func (c *Client) ListBooks(ctx context.Context, offset int) ([]Book, error) {
	return c.listBooks(ctx, "/books", offset)
}

func (c *Client) listBooks(ctx context.Context, path string, offset int) ([]Book, error) {
	if offset < 0 {
		offset = 0
	}
	q := make(url.Values)
	q.Set("offset", strconv.Itoa(offset))

	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw, WithQuery(q)); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	books, shape := normalizeBooks(raw)
	if shape != "array" {
		c.logger.Warn("book list was not a bare array", "path", path, "shape", shape, "count", len(books))
	}
	return books, nil
}

func (c *Client) GetBook(ctx context.Context, id ID) (Book, error) {
	var book Book
	if err := c.Get(ctx, "/books/"+url.PathEscape(id.String()), &book); err != nil {
		return Book{}, fmt.Errorf("fetch book %s: %w", id, err)
	}
	return book, nil
}

func (c *Client) CreateBook(ctx context.Context, in BookInput) error {
	if err := c.Post(ctx, "/books", in, nil); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (c *Client) UpdateBook(ctx context.Context, id ID, in BookInput) error {
	if err := c.Put(ctx, "/books/"+url.PathEscape(id.String()), in, nil); err != nil {
		return fmt.Errorf("update book %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteBook(ctx context.Context, id ID, opts ...RequestOption) error {
	if err := c.Delete(ctx, "/books/"+url.PathEscape(id.String()), nil, opts...); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

func (c *Client) SendViewLog(ctx context.Context, id ID) error {
	if err := c.Post(ctx, "/logs", viewLogRequest{SelectBookID: id}, nil); err != nil {
		return fmt.Errorf("send view log: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, opts []RequestOption) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, out, opts)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any, opts []RequestOption) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(req)
	}

	requestID := req.Header.Get("X-Request-ID")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed without response",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err,
		)
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if token := c.authToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}
