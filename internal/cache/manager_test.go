package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.Addr = srv.Addr()
	mgr, err := NewManager(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr, srv
}

func TestManager_ConnectFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.MaxRetries = 0

	_, err := NewManager(cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}

func TestManager_SetGet(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "k", "v", time.Minute))
	got, err := mgr.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestManager_GetMissing(t *testing.T) {
	mgr, _ := newTestManager(t)

	_, err := mgr.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ZeroTTLUsesDefault(t *testing.T) {
	mgr, srv := newTestManager(t)

	require.NoError(t, mgr.Set(context.Background(), "k", "v", 0))
	assert.Equal(t, DefaultConfig().DefaultTTL, srv.TTL("k"))
}

func TestManager_JSONRoundTrip(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	in := payload{Name: "supportiveness", Score: 0.85}
	require.NoError(t, mgr.SetJSON(ctx, "p", in, time.Minute))

	var out payload
	require.NoError(t, mgr.GetJSON(ctx, "p", &out))
	assert.Equal(t, in, out)
}

func TestManager_GetJSONCorruptValue(t *testing.T) {
	mgr, srv := newTestManager(t)
	require.NoError(t, srv.Set("p", "{not json"))

	var out map[string]any
	err := mgr.GetJSON(context.Background(), "p", &out)
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

func TestManager_Delete(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, mgr.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mgr.Set(ctx, "b", "2", time.Minute))
	require.NoError(t, mgr.Delete(ctx, "a", "b"))

	_, err := mgr.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close())

	_, err := mgr.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
	require.Error(t, mgr.Set(context.Background(), "k", "v", 0))
}

func TestManager_Ping(t *testing.T) {
	mgr, srv := newTestManager(t)
	require.NoError(t, mgr.Ping(context.Background()))

	srv.Close()
	assert.Error(t, mgr.Ping(context.Background()))
}
