package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kratzbaum/internal/eventbus"
	logx "kratzbaum/pkg/logx"
)

const validYAML = `
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
storage:
  driver: sqlite
  path: ./data/kratzbaum.db
  busy_timeout: 2s
scheduler:
  enabled: true
  timezone: Europe/Berlin
sweep:
  schedule: "@every 60s"
  cooldown: 24h
reminders:
  default_snooze_hours: 12
  link_base: https://plants.example
notifier:
  enabled: true
  rate_per_sec: 3
  breaker:
    failure_threshold: 4
    open_timeout: 30s
  telegram:
    enabled: true
    token: "123:abc"
settings_seed:
  preferred_reminder_time: "08:30"
  default_watering_interval: 7
`

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("kratzbaum.yaml", []byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
	assert.Equal(t, 12, cfg.Reminders.DefaultSnoozeHours)
	require.NotNil(t, cfg.Notifier)
	assert.Equal(t, 4, cfg.Notifier.Breaker.FailureThreshold)
	assert.True(t, cfg.Notifier.Telegram.Enabled)
	require.NotNil(t, cfg.SettingsSeed.DefaultWateringInterval)
	assert.Equal(t, 7, *cfg.SettingsSeed.DefaultWateringInterval)
	assert.Nil(t, cfg.SettingsSeed.DefaultFertilizingInterval)
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("kratzbaum.json", []byte(`{"storage":{"driver":"postgres","dsn":"postgres://localhost/plants"}}`))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Nil(t, cfg.Notifier)
}

func TestDecodeRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		file string
		data string
		msg  string
	}{
		{"unknown key", "c.json", `{"storage":{"driver":"sqlite","path":"x"},"plugins":{}}`, "unknown field"},
		{"trailing data", "c.json", `{"storage":{"path":"x"}}{}`, "trailing data"},
		{"bad yaml", "c.yaml", "storage: [", "yaml unmarshal"},
		{"sqlite without path", "c.json", `{}`, "storage.path is required"},
		{"postgres without dsn", "c.json", `{"storage":{"driver":"postgres"}}`, "storage.dsn is required"},
		{"unknown driver", "c.json", `{"storage":{"driver":"mongo"}}`, "unknown driver"},
		{"bad duration", "c.json", `{"storage":{"path":"x"},"sweep":{"cooldown":"a day"}}`, "sweep.cooldown"},
		{"negative duration", "c.json", `{"storage":{"path":"x"},"sweep":{"timeout":"-1s"}}`, "must be >= 0"},
		{"bad schedule", "c.json", `{"storage":{"path":"x"},"sweep":{"schedule":"often"}}`, "sweep.schedule"},
		{"bad timezone", "c.json", `{"storage":{"path":"x"},"scheduler":{"timezone":"Mars/Olympus"}}`, "scheduler.timezone"},
		{"bad level", "c.json", `{"storage":{"path":"x"},"logging":{"level":"loud"}}`, "logging.level"},
		{"snooze range", "c.json", `{"storage":{"path":"x"},"reminders":{"default_snooze_hours":1000}}`, "default_snooze_hours"},
		{"telegram without token", "c.json", `{"storage":{"path":"x"},"notifier":{"enabled":true,"telegram":{"enabled":true}}}`, "telegram.token"},
		{"seed time", "c.json", `{"storage":{"path":"x"},"settings_seed":{"preferred_reminder_time":"25:00"}}`, "preferred_reminder_time"},
		{"seed interval", "c.json", `{"storage":{"path":"x"},"settings_seed":{"default_watering_interval":0}}`, "default_watering_interval"},
		{"ops exposed", "c.json", `{"storage":{"path":"x"},"ops":{"enabled":true,"addr":"0.0.0.0:6060"}}`, "not loopback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.file, []byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: " 90s ", want: 90 * time.Second},
		{raw: "24h", want: 24 * time.Hour},
		{raw: "2d", want: 48 * time.Hour},
		{raw: "0d", want: 0},
		{raw: "-1h", wantErr: true},
		{raw: "-3d", wantErr: true},
		{raw: "1.5d", wantErr: true},
		{raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Duration("sweep.cooldown", tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "sweep.cooldown")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := DurationOr("sweep.timeout", "", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got)
}

func TestOpsAddr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ops  OpsConfig
		ok   bool
	}{
		{"default loopback", OpsConfig{Enabled: true}, true},
		{"localhost", OpsConfig{Addr: "localhost:9000"}, true},
		{"ipv6 loopback", OpsConfig{Addr: "[::1]:9000"}, true},
		{"public with token", OpsConfig{Addr: ":9000", Token: "t"}, true},
		{"public insecure", OpsConfig{Addr: "0.0.0.0:9000", AllowInsecure: true}, true},
		{"public bare", OpsConfig{Addr: ":9000"}, false},
		{"no port", OpsConfig{Addr: "localhost"}, false},
	}
	for _, tt := range tests {
		err := validateOps(tt.ops)
		if tt.ok {
			assert.NoError(t, err, tt.name)
		} else {
			assert.Error(t, err, tt.name)
		}
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	base, err := Decode("a.yaml", []byte(validYAML))
	require.NoError(t, err)

	same, err := Decode("b.yaml", []byte(validYAML))
	require.NoError(t, err)
	assert.True(t, SummarizeConfigChange(base, same).Empty())

	next := *base
	next.Logging.Level = "info"
	n := *base.Notifier
	n.Telegram.Token = "456:def"
	next.Notifier = &n
	next.Storage.Path = "./other.db"

	ch := SummarizeConfigChange(base, &next)
	assert.Equal(t, []string{"logging", "notifier", "storage"}, ch.Sections)
	assert.ElementsMatch(t, []string{"storage", "notifier.channels"}, ch.RestartRequired)

	var buf bytes.Buffer
	log := logx.NewWriter(&buf, "info")
	log.Info("config changed", ch.Attrs...)
	assert.NotContains(t, buf.String(), "456:def")
	assert.Contains(t, buf.String(), "notifier.telegram_token_set")
}

func TestManagerReload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "kratzbaum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	bus := eventbus.New()
	events, unsubscribe := bus.Subscribe(4, eventbus.ConfigReload)
	defer unsubscribe()

	m := NewManager(path, logx.Nop(), bus)
	cfg, err := m.Load()
	require.NoError(t, err)
	assert.Same(t, cfg, m.Get())

	sub := m.Subscribe(1)
	defer m.Unsubscribe(sub)
	ctx := context.Background()

	assert.False(t, m.reload(ctx), "unchanged content is not republished")

	changed := validYAML + "\nops:\n  enabled: false\n  pprof: true\n"
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o644))
	m.SetValidator(func(context.Context, *Config) error { return assert.AnError })
	assert.False(t, m.reload(ctx), "validator rejects")
	assert.Same(t, cfg, m.Get())

	m.SetValidator(nil)
	require.True(t, m.reload(ctx))
	got := <-sub
	assert.True(t, got.Ops.Pprof)
	assert.Same(t, got, m.Get())

	select {
	case ev := <-events:
		assert.Equal(t, path, ev.Data)
	default:
		t.Fatal("no config.reload event")
	}

	require.NoError(t, os.WriteFile(path, []byte("storage: {driver: mongo}"), 0o644))
	assert.False(t, m.reload(ctx), "invalid file keeps the last good config")
	assert.Same(t, got, m.Get())
}

func TestManagerWatch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "kratzbaum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	m := NewManager(path, logx.Nop(), nil)
	_, err := m.Load()
	require.NoError(t, err)
	sub := m.Subscribe(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Keep rewriting until the watcher is up and picks it up.
	changed := []byte(strings.Replace(validYAML,
		"  default_snooze_hours: 12\n",
		"  default_snooze_hours: 12\n  upcoming_days: 3\n", 1))
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case got := <-sub:
			assert.Equal(t, 3, got.Reminders.UpcomingDays)
			return
		case <-tick.C:
			require.NoError(t, os.WriteFile(path, changed, 0o644))
		case <-deadline:
			t.Fatal("watch did not publish a reload")
		}
	}
}
