package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kratzbaum/internal/model"
)

const cliConfig = `
logging:
  level: error
  console: false
storage:
  driver: sqlite
  path: %s
scheduler:
  enabled: false
settings_seed:
  preferred_reminder_time: "08:00"
  default_watering_interval: 7
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(cliConfig, filepath.Join(dir, "kratzbaum.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, cfg string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestPlantLifecycle(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "-o", "json", "plant", "add", "--name", "Fern", "--water", "3")
	require.NoError(t, err)
	var p model.Plant
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	require.NotEmpty(t, p.ID)
	assert.Equal(t, "Fern", p.Name)

	out, err = run(t, cfg, "plant", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Fern")
	assert.Contains(t, out, "3d")

	out, err = run(t, cfg, "reminder", "list", "--plant", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, string(model.ReminderWatering))
	assert.Contains(t, out, "08:00")

	out, err = run(t, cfg, "care", "log", p.ID, "--type", "watered", "--date", "2024-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "WATERED")

	out, err = run(t, cfg, "plant", "show", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "last WATERED")
	assert.Contains(t, out, "2024-03-01")

	_, err = run(t, cfg, "plant", "delete", p.ID)
	require.NoError(t, err)
	_, err = run(t, cfg, "plant", "show", p.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSettingsAndReconcile(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "08:00")
	assert.Contains(t, out, "7d")

	_, err = run(t, cfg, "plant", "add", "--name", "Ficus")
	require.NoError(t, err)

	out, err = run(t, cfg, "settings", "set", "--fertilize", "30", "--time", "18:15")
	require.NoError(t, err)
	assert.Contains(t, out, "18:15")
	assert.Contains(t, out, "reconciled 1 plants")

	out, err = run(t, cfg, "-o", "json", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, `"unchanged": 2`)
}

func TestSubscriptions(t *testing.T) {
	cfg := writeConfig(t)

	_, err := run(t, cfg, "subscription", "add", "--channel", "webhook", "--endpoint", "ftp://nope")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = run(t, cfg, "sub", "add", "--channel", "telegram", "--endpoint", "12345:7")
	require.NoError(t, err)
	out, err := run(t, cfg, "sub", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "12345:7")

	_, err = run(t, cfg, "sub", "remove", "12345:7")
	require.NoError(t, err)
	out, err = run(t, cfg, "sub", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "12345:7")
}

func TestSubscriptionTestRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := writeConfig(t)
	body, err := os.ReadFile(cfg)
	require.NoError(t, err)
	body = append(body, []byte(`notifier:
  enabled: true
  retry_max: 1
  retry_base: 1ms
  webhook:
    enabled: true
`)...)
	require.NoError(t, os.WriteFile(cfg, body, 0o600))

	_, err = run(t, cfg, "sub", "add", "--channel", "webhook", "--endpoint", srv.URL)
	require.NoError(t, err)

	out, err := run(t, cfg, "sub", "test", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "delivered to "+srv.URL)
	assert.Equal(t, int32(2), hits.Load(), "one failure, one retry")

	_, err = run(t, cfg, "sub", "test", "https://unknown.test")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestSweepWithoutSubscribers(t *testing.T) {
	cfg := writeConfig(t)
	_, err := run(t, cfg, "plant", "add", "--name", "Cactus")
	require.NoError(t, err)

	out, err := run(t, cfg, "-o", "json", "sweep", "--at", "2100-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"due": 1`)
	assert.Contains(t, out, `"notified": 0`)
}

func TestFlagErrors(t *testing.T) {
	cfg := writeConfig(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad output", []string{"-o", "yaml", "plant", "list"}, "--output"},
		{"missing name", []string{"plant", "add"}, "name"},
		{"bad date", []string{"care", "log", "x", "--date", "yesterday"}, "date"},
		{"bad frequency", []string{"reminder", "update", "x", "--frequency", "HOURLY"}, "frequency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, writeConfig(t), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "kratzbaum "))
}
