// Package commentapi implements the CommentAPI port against the product
// comment REST service.
package commentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/lmeunier/commentpanel/internal/domain/model"
	"github.com/lmeunier/commentpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentAPI = (*Client)(nil)

// Cookie and header names of the backend's CSRF handshake. The backend sets
// the cookie; every state-changing request must echo it in the header.
const (
	csrfCookieName = "csrftoken"
	csrfHeaderName = "X-CSRFToken"
)

// Client implements the driven.CommentAPI port over plain HTTP. The backend
// exposes a bespoke REST contract, so requests are built by hand rather
// than through a generated SDK.
type Client struct {
	http    *http.Client
	baseURL *url.URL
}

// NewClient creates a comment API client for the given base URL
// (scheme://host, no trailing slash required). The transport stack is:
//  1. httpcache (conditional request caching on GETs, per response headers)
//  2. net/http with a cookie jar, so the backend's csrftoken cookie is
//     captured and echoed on mutating calls
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Jar:       jar,
		Timeout:   30 * time.Second,
	}

	return newClient(httpClient, baseURL)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an
// httptest server's client. A cookie jar is attached when the client has
// none, since the CSRF handshake depends on one.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	return newClient(httpClient, baseURL)
}

func newClient(httpClient *http.Client, baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Client{http: httpClient, baseURL: u}, nil
}

// commentJSON is the backend serializer's wire representation of a comment.
type commentJSON struct {
	PK          int64    `json:"pk"`
	CommentText string   `json:"comment_text"`
	Product     string   `json:"product"`
	User        int64    `json:"user"`
	Username    string   `json:"username"`
	URL         string   `json:"url"`
	Permissions []string `json:"permissions"`
	Created     string   `json:"created"`
	Updated     string   `json:"updated"`
}

// createJSON is the request body for comment creation.
type createJSON struct {
	CommentText string `json:"comment_text"`
	Product     string `json:"product"`
}

// updateJSON is the request body for a comment text patch.
type updateJSON struct {
	CommentText string `json:"comment_text"`
}

// ListByProduct retrieves the comments attached to a product, in backend
// order. Success requires status 200 exactly; any other status is an APIError.
func (c *Client) ListByProduct(ctx context.Context, productID string) ([]model.Comment, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/products/"+productID+"/comments-list/", nil)
	if err != nil {
		return nil, fmt.Errorf("listing comments for product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var wire []commentJSON
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding comment list for product %s: %w", productID, err)
	}

	comments := make([]model.Comment, 0, len(wire))
	for _, w := range wire {
		comments = append(comments, mapComment(w))
	}

	return comments, nil
}

// Create posts a new comment and returns the backend's canonical copy.
// The text is sent as-is; emptiness is not enforced client-side.
func (c *Client) Create(ctx context.Context, productID, text string) (*model.Comment, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/comments/", createJSON{CommentText: text, Product: productID})
	if err != nil {
		return nil, fmt.Errorf("creating comment on product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var wire commentJSON
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding created comment: %w", err)
	}

	comment := mapComment(wire)
	return &comment, nil
}

// Update patches a comment's text and returns the backend's canonical copy.
func (c *Client) Update(ctx context.Context, pk int64, text string) (*model.Comment, error) {
	resp, err := c.do(ctx, http.MethodPatch, "/api/comments/"+strconv.FormatInt(pk, 10)+"/", updateJSON{CommentText: text})
	if err != nil {
		return nil, fmt.Errorf("updating comment %d: %w", pk, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var wire commentJSON
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding updated comment %d: %w", pk, err)
	}

	comment := mapComment(wire)
	return &comment, nil
}

// Remove deletes a comment by id. The historical endpoint takes no trailing
// slash here, unlike the update endpoint; the backend accepts this form.
func (c *Client) Remove(ctx context.Context, pk int64) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/comments/"+strconv.FormatInt(pk, 10), nil)
	if err != nil {
		return fmt.Errorf("deleting comment %d: %w", pk, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apiError(resp)
	}

	// Response body is ignored on delete.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do builds and executes one request. Mutating methods carry the CSRF token
// read back from the cookie jar; GETs are exempt.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if method != http.MethodGet {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(csrfHeaderName, token)
		}
	}

	return c.http.Do(req)
}

// csrfToken returns the csrftoken cookie value the backend set for the base
// URL, or empty when none has been received yet.
func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}

	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

// apiError converts a non-success response into the port's APIError,
// draining the body so the connection can be reused.
func apiError(resp *http.Response) *driven.APIError {
	_, _ = io.Copy(io.Discard, resp.Body)

	return &driven.APIError{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
	}
}

// statusText extracts the reason phrase from the response status line,
// falling back to the standard text for the code.
func statusText(resp *http.Response) string {
	if _, text, ok := strings.Cut(resp.Status, " "); ok && text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// mapComment converts a wire comment to its domain representation.
// Timestamps are display-only; unparseable values map to the zero time
// rather than failing the whole operation.
func mapComment(w commentJSON) model.Comment {
	permissions := w.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	return model.Comment{
		PK:          w.PK,
		CommentText: w.CommentText,
		Product:     w.Product,
		User:        w.User,
		Username:    w.Username,
		URL:         w.URL,
		Permissions: permissions,
		Created:     parseTime(w.Created),
		Updated:     parseTime(w.Updated),
	}
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
