package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/clockd/internal/config"
	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/engine"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, log.InfoLevel, cfg.Level())

	sw, err := cfg.StopwatchEngine()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultStopwatchConfig(), sw)

	tm, err := cfg.TimerEngine()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultTimerConfig(), tm)

	assert.Equal(t, time.Hour, cfg.Sessions.IdleTimeout)
	assert.Empty(t, cfg.Journal.Driver)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clockd.yaml")
	yaml := `
addr: ":9090"
log-level: debug
stopwatch:
  interval: 1s
  precision: seconds
  display: on-stop
timer:
  feedback: false
journal:
  driver: sqlite3
  dsn: /tmp/journal.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, log.DebugLevel, cfg.Level())

	sw, err := cfg.StopwatchEngine()
	require.NoError(t, err)
	assert.Equal(t, time.Second, sw.TickInterval)
	assert.Equal(t, domain.PrecisionSeconds, sw.Precision)
	assert.Equal(t, engine.DisplayOnStop, sw.Display)

	tm, err := cfg.TimerEngine()
	require.NoError(t, err)
	assert.False(t, tm.FeedbackEnabled)
	assert.Equal(t, time.Second, tm.TickInterval)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CLOCKD_STOPWATCH_INTERVAL", "250ms")
	t.Setenv("CLOCKD_SESSIONS_MAX", "3")

	cfg, err := config.Load(newViper())
	require.NoError(t, err)

	sw, err := cfg.StopwatchEngine()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, sw.TickInterval)
	assert.Equal(t, 3, cfg.Sessions.Max)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero interval", "timer.interval", "0s"},
		{"bad precision", "stopwatch.precision", "millis"},
		{"bad display", "stopwatch.display", "never"},
		{"bad log level", "log-level", "loud"},
		{"bad driver", "journal.driver", "mysql"},
		{"driver without dsn", "journal.driver", "postgres"},
		{"negative tick rate", "feedback.tick-rate", -1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)

			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BurstRequiredWithTickRate(t *testing.T) {
	for _, burst := range []int{0, -2} {
		v := newViper()
		v.Set("feedback.tick-rate", 5.0)
		v.Set("feedback.burst", burst)

		_, err := config.Load(v)
		assert.ErrorContains(t, err, "burst", "burst %d", burst)
	}

	v := newViper()
	v.Set("feedback.tick-rate", 5.0)
	v.Set("feedback.burst", 2)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Feedback.Burst)

	v = newViper()
	v.Set("feedback.burst", 0)
	_, err = config.Load(v)
	assert.NoError(t, err, "burst is unused without a tick rate")
}
