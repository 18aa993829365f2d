package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chatstream/internal/config"
	"chatstream/internal/transport"
	"chatstream/internal/upstream"
)

// ImageAttachment is one inline image of a chat request.
type ImageAttachment struct {
	Data string `json:"data"`
	Mime string `json:"mime"`
}

// Request describes one chat exchange to stream. Options are feature flags
// spread into the top level of the wire payload alongside the fixed fields.
type Request struct {
	SessionID int64
	Content   string
	Images    []ImageAttachment
	Options   map[string]any

	// StreamKey addresses this stream for cancellation. Empty means
	// generate one.
	StreamKey string
}

func (r Request) wirePayload() ([]byte, error) {
	body := map[string]any{
		"sessionId": r.SessionID,
		"content":   r.Content,
	}
	if len(r.Images) > 0 {
		body["images"] = r.Images
	}
	for k, v := range r.Options {
		body[k] = v
	}
	return json.Marshal(body)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Cookie  string
	// HTTPClient defaults to the fingerprinted transport.
	HTTPClient transport.Doer
	Registry   *Registry
	// RetryBackoff is the fixed wait before the single 5xx retry.
	RetryBackoff time.Duration
	// OnUnauthorized fires once per 401 so the auth layer can clear the
	// session. Never called after bytes started streaming.
	OnUnauthorized func()
	Logger         *slog.Logger
}

// Client issues chat-stream requests and owns the pre-stream retry policy.
type Client struct {
	http           transport.Doer
	baseURL        string
	cookie         string
	registry       *Registry
	backoff        time.Duration
	onUnauthorized func()
	logger         *slog.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		http:           opts.HTTPClient,
		baseURL:        opts.BaseURL,
		cookie:         opts.Cookie,
		registry:       opts.Registry,
		backoff:        opts.RetryBackoff,
		onUnauthorized: opts.OnUnauthorized,
		logger:         opts.Logger,
	}
	if c.http == nil {
		c.http = transport.New()
	}
	if c.registry == nil {
		c.registry = NewRegistry()
	}
	if c.backoff == 0 {
		c.backoff = 2 * time.Second
	}
	if c.logger == nil {
		c.logger = config.Logger
	}
	return c
}

// Registry exposes the registry so callers can cancel by stream key.
func (c *Client) Registry() *Registry { return c.registry }

// open issues the chat-stream POST and applies the pre-stream policy:
// 401 never retries and fires the invalidation hook; 429 never retries and
// carries the structured body; a 5xx gets one fixed-backoff retry with the
// identical payload; everything else non-2xx is a hard HTTPError. Once this
// returns a response, no retry will ever happen again for this stream.
func (c *Client) open(ctx context.Context, req Request) (*http.Response, error) {
	payload, err := req.wirePayload()
	if err != nil {
		return nil, err
	}
	resp, err := c.attempt(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		drain(resp)
		return nil, c.unauthorized()
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &QuotaError{Body: readJSONBody(resp)}
	case resp.StatusCode >= 500:
		drain(resp)
		c.logger.Warn("chat stream got server error, retrying once",
			"status", resp.StatusCode, "backoff", c.backoff)
		select {
		case <-time.After(c.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		retry, err := c.attempt(ctx, payload)
		if err != nil {
			return nil, err
		}
		if retry.StatusCode == http.StatusOK {
			return retry, nil
		}
		if retry.StatusCode == http.StatusUnauthorized {
			drain(retry)
			return nil, c.unauthorized()
		}
		return nil, httpError(retry)
	default:
		return nil, httpError(resp)
	}
}

func (c *Client) attempt(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+upstream.ChatStreamPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	for k, v := range upstream.BaseHeaders {
		httpReq.Header.Set(k, v)
	}
	if c.cookie != "" {
		httpReq.Header.Set("Cookie", c.cookie)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	resp.Body = transport.DecodeBody(resp)
	return resp, nil
}

func (c *Client) unauthorized() error {
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
	return ErrUnauthorized
}

func httpError(resp *http.Response) *HTTPError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	return &HTTPError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
}

func readJSONBody(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}
