// Package client is the authenticated HTTP client for the catalog API. It
// attaches the session's bearer token to every request and recovers from an
// expired access token with a single coordinated refresh, replaying every
// request that failed during that refresh episode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-catalog-client/internal/config"
	"github.com/jrsteele09/go-catalog-client/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const contentTypeJSON = "application/json"

// Refresher exchanges a refresh token for a new token pair without going
// through the 401-handling path.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *sessions.Manager
	refresher  Refresher
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Timeout bounds each
// request.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for cfg's base URL. A nil refresher uses a
// TokenRefresher against the same API.
func New(cfg config.APIConfig, sm *sessions.Manager, refresher Refresher, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.GetAPIBaseURL(),
		httpClient: &http.Client{Timeout: cfg.GetRequestTimeout()},
		sessions:   sm,
		refresher:  refresher,
		logger:     logger.With().Str("component", "client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.refresher == nil {
		c.refresher = NewTokenRefresher(cfg, nil)
	}
	return c
}

// Request describes one logical API call. A Request is replayed at most once
// after a token refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	payload []byte
	retried bool
}

func NewRequest(method, path string, body any) *Request {
	return &Request{Method: method, Path: path, Body: body}
}

// Retried reports whether the request has already been replayed after a 401.
func (r *Request) Retried() bool {
	return r.retried
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if v == nil || len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Message: fmt.Sprintf("invalid response body: %s", err), Status: r.StatusCode, Err: err}
	}
	return nil
}

// Do sends req with the current access token. A 401 on the first attempt
// hands the failure to the session manager, which either refreshes the token
// or joins the refresh already in flight; the request is then replayed once
// with the resulting token. Every error returned is an *Error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	creds := c.sessions.Credentials()
	resp, apiErr := c.send(ctx, req, creds.Token)
	if apiErr == nil {
		return resp, nil
	}
	if !apiErr.IsUnauthorized() || req.retried {
		return nil, apiErr
	}

	req.retried = true
	newTok, err := c.sessions.Refresh(ctx, creds, apiErr, c.refresher.Refresh)
	if err != nil {
		return nil, normalize(err)
	}

	resp, apiErr = c.send(ctx, req, newTok)
	if apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	req := NewRequest(http.MethodGet, path, nil)
	req.Query = query
	return c.doJSON(ctx, req, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, NewRequest(http.MethodPost, path, body), out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, NewRequest(http.MethodDelete, path, nil), out)
}

func (c *Client) doJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// send performs a single attempt. Only the Authorization header depends on
// the session.
func (c *Client) send(ctx context.Context, req *Request, tok *oauth2.Token) (*Response, *Error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}
	if tok != nil && tok.AccessToken != "" {
		tok.SetAuthHeader(httpReq)
	}

	requestID := uuid.New().String()
	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug().Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).
			Dur("duration", time.Since(start)).Err(err).Msg("request failed")
		return nil, transportError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &Error{Message: err.Error(), Status: httpResp.StatusCode, Err: err}
	}
	c.logger.Debug().Str("request_id", requestID).Str("method", req.Method).Str("path", req.Path).
		Int("status", httpResp.StatusCode).Bool("replay", req.retried).Dur("duration", time.Since(start)).Msg("request")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, responseError(httpResp.StatusCode, body)
	}
	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	if req.Body != nil && req.payload == nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req.payload = payload
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.payload != nil {
		body = bytes.NewReader(req.payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	return httpReq, nil
}
