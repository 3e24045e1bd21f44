package httputil

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// Transport is an http.RoundTripper that applies the request pipeline:
// Headers → Bearer token → RateLimiter → Send
type Transport struct {
	Base        http.RoundTripper
	Headers     http.Header
	Token       func(*http.Request) string
	RateLimiter *rate.Limiter
	UserAgent   string
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	req = req.Clone(req.Context())

	// 1. Default headers; per-request values win
	for key, vals := range t.Headers {
		if req.Header.Get(key) == "" {
			for _, v := range vals {
				req.Header.Add(key, v)
			}
		}
	}
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}

	// 2. Bearer token
	if t.Token != nil && req.Header.Get("Authorization") == "" {
		if tok := t.Token(req); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	// 3. Wait for rate limiter token
	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	transport := t.Base
	if transport == nil {
		transport = http.DefaultTransport
	}
	return transport.RoundTrip(req)
}
