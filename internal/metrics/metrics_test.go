package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoolSource struct {
	busy, idle, queue int
}

func (f fakePoolSource) BusyCount() int { return f.busy }
func (f fakePoolSource) IdleCount() int { return f.idle }
func (f fakePoolSource) QueueLen() int  { return f.queue }

func TestPollGaugesUpdatesMetrics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	PollGauges(ctx, fakePoolSource{busy: 3, idle: 1, queue: 7}, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, float64(3), testutil.ToFloat64(PoolBusyWorkers))
	assert.Equal(t, float64(1), testutil.ToFloat64(PoolIdleWorkers))
	assert.Equal(t, float64(7), testutil.ToFloat64(PoolQueueDepth))
}

func TestMetricsServerServesEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewServer("").httpServer.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "searchd_")
}
