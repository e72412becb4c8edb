package database

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/config"
	"github.com/jnorvi5/green-sourcing-b2b-app-sub014/internal/common/logger"
)

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewTestLogger(t)

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), log, "postgres", 3, time.Millisecond, func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), log, "redis", 2, time.Millisecond, func(context.Context) error {
			calls++
			return errors.New("down")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed after 2 attempts")
		assert.Equal(t, 2, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, log, "zeebe", 5, time.Hour, func(context.Context) error {
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()

	require.NoError(t, PingRedis(context.Background(), rdb))

	mr.Close()
	assert.Error(t, PingRedis(context.Background(), rdb))
}

func TestElasticsearch_Ping(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	es, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{server.URL}})
	require.NoError(t, err)
	require.NoError(t, PingElasticsearch(context.Background(), es))

	status.Store(http.StatusServiceUnavailable)
	assert.Error(t, PingElasticsearch(context.Background(), es))
}

func TestNewPostgres(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "greensource", User: "matcher",
		SSLMode: "disable", MaxConnections: 4, MaxIdle: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, client.DB.Stats().MaxOpenConnections)
	assert.NoError(t, client.Close())
}
