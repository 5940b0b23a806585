package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAndSnapshot(t *testing.T) {
	m := NewMetrics(10)

	m.RecordRequest("generate")
	m.RecordDuration("generate", 40*time.Millisecond)
	m.RecordRequest("generate")
	m.RecordDuration("generate", 20*time.Millisecond)
	m.RecordFailure("generate")
	m.RecordSchedule(12, 2)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.RequestTotal)
	assert.Equal(t, int64(1), snap.RequestFailed)
	assert.Equal(t, int64(12), snap.Sessions)
	assert.Equal(t, int64(2), snap.Notifications)
	assert.Equal(t, 2, snap.DurationCount)
	assert.Equal(t, int64(40), snap.P95DurationMs)
	require.Contains(t, snap.Operations, "generate")
	assert.Equal(t, int64(30), snap.Operations["generate"].AverageDuration)
	assert.Equal(t, int64(1), snap.Operations["generate"].ErrorCount)
	assert.InDelta(t, 50.0, snap.SuccessRate(), 0.001)
	assert.Equal(t, int64(30), m.GetAverageDuration("generate"))

	m.Reset()
	assert.Equal(t, int64(0), m.Snapshot().RequestTotal)
	assert.Equal(t, 100.0, m.Snapshot().SuccessRate())
}

func TestMetrics_DurationRingIsBounded(t *testing.T) {
	m := NewMetrics(3)
	for i := 0; i < 10; i++ {
		m.RecordDuration("sync", time.Duration(i)*time.Millisecond)
	}
	assert.Equal(t, 3, m.Snapshot().DurationCount)
}

func TestMetrics_ConcurrentUse(t *testing.T) {
	m := NewMetrics(100)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("extend")
			m.RecordDuration("extend", time.Millisecond)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(20), m.Snapshot().Operations["extend"].ExecutionCount)
}

func TestRequestContext_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rc := NewRequestContextWithID(logger, "req-1", "generate").WithPlan("abc")
	rc.Info("plan generated", slog.Int(LogFieldSessions, 6))
	rc.Error("store failed", errors.New("disk full"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"plan_uid":"abc"`)
	assert.Contains(t, out, `"sessions":6`)
	assert.Contains(t, out, `"error":"disk full"`)
}

func TestRequestContext_Propagation(t *testing.T) {
	rc := NewRequestContext(slog.Default(), "http")
	assert.Len(t, rc.RequestID, 36)

	ctx := WithRequestContext(context.Background(), rc)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)

	child := RequestFromContext(ctx, "generate")
	assert.Equal(t, rc.RequestID, child.RequestID)
	assert.Equal(t, "generate", child.Operation)

	fresh := RequestFromContext(context.Background(), "sync")
	assert.NotEmpty(t, fresh.RequestID)
}
