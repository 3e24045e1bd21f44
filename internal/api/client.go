package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/httputil"
	"github.com/lukman83/components-radar/internal/storage"
)

// Error is a non-2xx answer from the backend. Message is the body's
// "message" field when present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend status %d", e.Status)
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// Client talks to the auth/commerce REST backend. Authenticated calls
// carry the bearer token held in client storage.
type Client struct {
	client *http.Client
	base   string
	log    zerolog.Logger
}

// New builds a Client for cfg.APIBaseURL. The token is read from store on
// every request, so login and logout take effect immediately.
func New(cfg *config.Config, store storage.Store, log zerolog.Logger) *Client {
	transport := &httputil.Transport{
		Headers:   httputil.JSONHeaders(),
		UserAgent: "components-radar",
		Token: func(req *http.Request) string {
			tok, _, err := store.Get(req.Context(), storage.KeyToken)
			if err != nil {
				return ""
			}
			return tok
		},
	}
	return NewWithHTTPClient(cfg.APIBaseURL, httputil.NewHTTPClient(transport, cfg.APITimeout), log)
}

// NewWithHTTPClient is New with a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, client *http.Client, log zerolog.Logger) *Client {
	return &Client{
		client: client,
		base:   strings.TrimRight(baseURL, "/"),
		log:    log.With().Str("component", "api").Logger(),
	}
}

// do sends in (if non-nil) as JSON and decodes the reply into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadBody(resp)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &msg) == nil {
			apiErr.Message = msg.Message
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.log.Warn().Str("method", method).Str("path", path).Msg("backend rejected credentials")
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
