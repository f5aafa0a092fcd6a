package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_SpanName(t *testing.T) {
	tp, exp := newTestTracerProvider(t)
	client := NewClient(WithTelemetry(WithTracerProvider(tp)))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := client.Get(server.URL + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /ping", spans[0].Name)
}

func TestBuildTransport(t *testing.T) {
	c := &clientConfig{
		base:                  &http.Transport{},
		dialTimeout:           time.Second,
		responseHeaderTimeout: 2 * time.Second,
		maxIdleConnsPerHost:   7,
		idleConnTimeout:       3 * time.Second,
	}

	rt := buildTransport(c)
	tr, ok := rt.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext)
	assert.Equal(t, 2*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 7, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 3*time.Second, tr.IdleConnTimeout)
	assert.NotSame(t, c.base, tr)
}

func TestBuildTransport_OpaqueRoundTripper(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	c := &clientConfig{base: rt, dialTimeout: time.Second}

	assert.NotNil(t, buildTransport(c))
}

func TestNewClient_Timeout(t *testing.T) {
	client := NewClient(WithTimeout(5 * time.Second))

	assert.Equal(t, 5*time.Second, client.Timeout)
	assert.NotNil(t, client.Transport)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
