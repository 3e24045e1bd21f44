package httputil

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTransportInjectsHeadersAndToken(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	client := NewHTTPClient(&Transport{
		Headers:     AlgoliaHeaders("APP", "KEY"),
		Token:       func(*http.Request) string { return "tok" },
		RateLimiter: rate.NewLimiter(rate.Inf, 1),
		UserAgent:   "radar-test",
	}, time.Second)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/plain")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "APP", got.Get("X-Algolia-Application-Id"))
	assert.Equal(t, "KEY", got.Get("X-Algolia-API-Key"))
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "text/plain", got.Get("Accept"))
	assert.Equal(t, "radar-test", got.Get("User-Agent"))
	assert.Empty(t, req.Header.Get("Authorization"), "caller request untouched")
}

func TestDoWithRetryRetries5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("body"))
	require.NoError(t, err)
	resp, err := DoWithRetry(srv.Client(), req, 2)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDoWithRetryReturnsLast5xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := DoWithRetry(srv.Client(), req, 0)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestDoWithRetryStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = DoWithRetry(srv.Client(), req, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReadBodyBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write([]byte(`{"hits":[]}`))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp := &http.Response{
		Header: http.Header{"Content-Encoding": []string{"br"}},
		Body:   http.NoBody,
	}
	resp.Body = nopCloser{&buf}
	body, err := ReadBody(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"hits":[]}`, string(body))
}

type nopCloser struct{ *bytes.Buffer }

func (nopCloser) Close() error { return nil }
