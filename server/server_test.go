package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/studyplan/internal/profile"
	teststore "github.com/hrygo/studyplan/store/test"
)

func TestServer_RunAndShutdown(t *testing.T) {
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)
	p := &profile.Profile{Mode: "dev", Addr: "127.0.0.1", Port: 0, Version: "0.3.0", Timezone: "UTC"}

	s, err := NewServer(ctx, p, st)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewServer_RejectsBadTimezone(t *testing.T) {
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)
	_, err := NewServer(ctx, &profile.Profile{Timezone: "Mars/Olympus"}, st)
	assert.Error(t, err)
}
