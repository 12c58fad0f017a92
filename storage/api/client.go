// Package api is the client of the institute REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/campusdesk/core"
)

// WithToken attaches the bearer token forwarded to the backend.
func WithToken(ctx context.Context, token string) context.Context {
	return core.WithToken(ctx, token)
}

// TokenFrom returns the token attached with WithToken.
func TokenFrom(ctx context.Context) string {
	return core.TokenFrom(ctx)
}

// envelope is the response shape of every backend endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (env envelope) message() string {
	if env.Message != "" {
		return env.Message
	}
	return env.Error
}

// Client calls the backend. Every failure is a *core.APIError.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  core.Logger
}

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return NewClientWith(conf.Upstream.BaseURL, conf.Upstream.Token, &http.Client{Timeout: conf.Upstream.Timeout}, logger)
}

// NewClientWith builds a client for baseURL. token is used when the context carries none.
func NewClientWith(baseURL, token string, httpClient *http.Client, logger core.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  logger,
	}
}

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// Get decodes the data of GET path?q into out.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do sends the request and decodes the envelope data into out (when out is not nil).
func (c *Client) Do(ctx context.Context, method, path string, q url.Values, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return core.NewAPIError(core.KindValidation, 0, "encoding request body", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, q), reqBody)
	if err != nil {
		return core.NewAPIError(core.KindNetwork, 0, "building request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := TokenFrom(ctx)
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return core.NewAPIError(core.KindCanceled, 0, method+" "+path+" canceled", ctx.Err())
		}
		return core.NewAPIError(core.KindNetwork, 0, method+" "+path+" failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return core.NewAPIError(core.KindCanceled, 0, method+" "+path+" canceled", ctx.Err())
		}
		return core.NewAPIError(core.KindNetwork, resp.StatusCode, "reading response", err)
	}
	// late response: the caller is gone
	if ctx.Err() != nil {
		return core.NewAPIError(core.KindCanceled, 0, method+" "+path+" canceled", ctx.Err())
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if kind, failed := kindOf(resp.StatusCode); failed {
		msg := env.message()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("api: "+method+" "+path+": "+msg, map[string]interface{}{"status": resp.StatusCode})
		return core.NewAPIError(kind, resp.StatusCode, msg, nil)
	}
	if decodeErr != nil {
		return core.NewAPIError(core.KindNetwork, resp.StatusCode, "malformed response envelope", decodeErr)
	}
	if env.Success != nil && !*env.Success {
		msg := env.message()
		if msg == "" {
			msg = "request rejected"
		}
		return core.NewAPIError(core.KindRejected, resp.StatusCode, msg, nil)
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return core.NewAPIError(core.KindNetwork, resp.StatusCode, "decoding response data", errors.Wrap(err, method+" "+path))
	}
	return nil
}

// kindOf maps a non-2xx status to an error kind.
func kindOf(status int) (core.Kind, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return core.KindUnauthorized, true
	case status == http.StatusNotFound:
		return core.KindNotFound, true
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return core.KindValidation, true
	case status >= 500:
		return core.KindNetwork, true
	default:
		return core.KindRejected, true
	}
}
