package ops

import (
	"context"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "kratzbaum/pkg/logx"
)

func waitForHTTP(ctx context.Context, url string) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		reqCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
		if err != nil {
			cancel()
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		cancel()
		if err == nil && resp != nil {
			_ = resp.Body.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func get(t *testing.T, url string, header map[string]string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func start(t *testing.T, cfg Config, src Sources) (*Service, string) {
	t.Helper()
	svc := New(cfg, src, logx.Nop())
	t.Cleanup(func() { svc.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	addr := svc.Addr()
	require.NotEmpty(t, addr)
	require.NoError(t, waitForHTTP(ctx, "http://"+addr+"/healthz"))
	return svc, "http://" + addr
}

func TestEndpoints(t *testing.T) {
	_, base := start(t, Config{Enabled: true, Addr: "127.0.0.1:0"}, Sources{
		Schedules: func() any { return map[string]any{"enabled": true, "schedules": []string{"reminder.sweep"}} },
	})

	code, body := get(t, base+"/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get(t, base+"/metrics", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")

	code, body = get(t, base+"/schedules", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"reminder.sweep"`)

	code, _ = get(t, base+"/workers", nil)
	assert.Equal(t, http.StatusNotFound, code, "nil source")

	code, _ = get(t, base+"/debug/pprof/", nil)
	assert.Equal(t, http.StatusNotFound, code, "pprof off by default")
}

func TestHealthFailure(t *testing.T) {
	_, base := start(t, Config{Enabled: true, Addr: "127.0.0.1:0"}, Sources{
		Health: func(context.Context) error { return errors.New("database closed") },
	})
	code, body := get(t, base+"/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "database closed")
}

func TestTokenAuth(t *testing.T) {
	_, base := start(t, Config{Enabled: true, Addr: "127.0.0.1:0", Token: "s3cret"}, Sources{})

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"missing", "/metrics", nil, http.StatusUnauthorized},
		{"wrong query", "/metrics?token=nope", nil, http.StatusUnauthorized},
		{"query", "/metrics?token=s3cret", nil, http.StatusOK},
		{"bearer", "/metrics", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusOK},
		{"wrong bearer", "/metrics", map[string]string{"Authorization": "Bearer x"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := get(t, base+tt.path, tt.header)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRefusesPublicBindWithoutToken(t *testing.T) {
	svc := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, Sources{}, logx.Nop())
	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.Empty(t, svc.Addr())
}

func TestReconfigureEnableDisable(t *testing.T) {
	prevMutex := runtime.SetMutexProfileFraction(-1)
	t.Cleanup(func() {
		_ = runtime.SetMutexProfileFraction(prevMutex)
		runtime.SetBlockProfileRate(0)
	})

	svc := New(Config{}, Sources{}, logx.Nop())
	t.Cleanup(func() { svc.Stop(context.Background()) })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := Config{Enabled: true, Addr: "127.0.0.1:0", Pprof: true, MutexProfileFraction: 7, BlockProfileRate: 1}
	require.NoError(t, svc.Reconfigure(ctx, cfg))
	addr := svc.Addr()
	require.NotEmpty(t, addr)
	require.NoError(t, waitForHTTP(ctx, "http://"+addr+"/debug/pprof/"))

	code, body := get(t, "http://"+addr+"/debug/pprof/", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, "goroutine"))
	assert.Equal(t, 7, runtime.SetMutexProfileFraction(-1))

	require.NoError(t, svc.Reconfigure(ctx, Config{Enabled: false}))
	assert.Empty(t, svc.Addr())

	c := http.Client{Timeout: 200 * time.Millisecond}
	if resp, err := c.Get("http://" + addr + "/healthz"); err == nil {
		_ = resp.Body.Close()
		t.Fatalf("listener still accepting after disable")
	}
}
