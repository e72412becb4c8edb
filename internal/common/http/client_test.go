package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	Value string `json:"value"`
}

func TestPostJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/relevance", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in echo
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(echo{Value: in.Value + "!"})
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", "key-1", time.Second, 0)
	var out echo
	require.NoError(t, c.PostJSON(context.Background(), "/api/ai/relevance", echo{Value: "hi"}, &out))
	assert.Equal(t, "hi!", out.Value)
}

func TestPostJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in echo
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "again", in.Value)

		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(echo{Value: "ok"})
	}))
	defer server.Close()

	c := NewClient(server.URL, "", time.Second, 2)
	var out echo
	require.NoError(t, c.PostJSON(context.Background(), "/x", echo{Value: "again"}, &out))
	assert.Equal(t, "ok", out.Value)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPostJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", time.Second, 3)
	err := c.PostJSON(context.Background(), "/x", echo{}, nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "bad payload", se.Body)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostJSON_ContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "", 5*time.Second, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.PostJSON(ctx, "/slow", echo{}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
