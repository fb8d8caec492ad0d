package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/embedfill/backfill"
	"github.com/poiesic/embedfill/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_SuccessfulRun(t *testing.T) {
	c := NewCollector()

	c.RunStarted("run-1", 120)
	assert.Equal(t, 120.0, testutil.ToFloat64(c.PendingRecords))

	c.BatchProcessed(backfill.Event{BatchSize: 50, Processed: 50, Duration: 200 * time.Millisecond})
	c.BatchProcessed(backfill.Event{BatchSize: 50, Processed: 100, Duration: 200 * time.Millisecond})
	c.BatchProcessed(backfill.Event{BatchSize: 20, Processed: 120, Duration: 100 * time.Millisecond})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.PendingRecords))

	c.RunFinished(backfill.Summary{Processed: 120, State: backfill.StateCompleted}, nil)

	assert.Equal(t, 120.0, testutil.ToFloat64(c.RecordsEmbedded))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Batches.WithLabelValues("written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.LastRunSuccess))
	assert.Equal(t, 1, testutil.CollectAndCount(c.BatchDuration))
}

func TestCollector_FailedRun(t *testing.T) {
	c := NewCollector()

	c.RunStarted("run-2", -1)
	c.BatchProcessed(backfill.Event{BatchSize: 50, Processed: 50})
	c.RunFinished(backfill.Summary{Processed: 50, State: backfill.StateFailed},
		&backfill.BatchError{Kind: core.ErrProvider, Op: "embed", Err: errors.New("down")})

	assert.Equal(t, 50.0, testutil.ToFloat64(c.RecordsEmbedded))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Batches.WithLabelValues("provider")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.LastRunSuccess))
}

func TestCollector_Push(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector()
	c.RunStarted("abc", 1)
	c.BatchProcessed(backfill.Event{BatchSize: 1, Processed: 1})

	require.NoError(t, c.Push(context.Background(), srv.URL))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.True(t, strings.HasPrefix(gotPath, "/metrics/job/embedfill"), gotPath)
	assert.Contains(t, gotPath, "/run/abc")
}

func TestCollector_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewCollector().Push(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "push metrics")
}
