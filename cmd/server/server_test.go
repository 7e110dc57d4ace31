package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/runner"
	"github.com/hperssn/clockd/internal/storage"
	"github.com/hperssn/clockd/internal/tick/ticktest"
)

type testServer struct {
	*httptest.Server
	sched *ticktest.FakeScheduler
}

func newTestServer(t *testing.T, repo storage.Repository) *testServer {
	t.Helper()

	logger := log.New(io.Discard)
	sched := ticktest.NewFakeScheduler()
	reg := prometheus.NewRegistry()

	opts := runner.DefaultOptions()
	opts.Scheduler = sched
	opts.IdleTimeout = 0
	opts.Metrics = runner.NewMetrics(reg)
	opts.Logger = logger

	if repo != nil {
		ctx, cancel := context.WithCancel(context.Background())
		journal := storage.NewJournal(repo, 16, logger)
		opts.Sinks = append(opts.Sinks, journal.SinkFor)
		done := make(chan struct{})
		go func() {
			journal.Run(ctx)
			close(done)
		}()
		t.Cleanup(func() {
			cancel()
			<-done
		})
	}

	manager, err := runner.NewSessionManager(opts)
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	srv := httptest.NewServer(newRouter(routerDeps{
		manager:  manager,
		journal:  repo,
		gatherer: reg,
		logger:   logger,
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, sched: sched}
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-Auth-User", user)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) createSession(t *testing.T, user string) string {
	t.Helper()

	resp := s.do(t, http.MethodPost, "/sessions", user, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[domain.ClockSnapshot](t, resp).Session.ID
}

func TestCreateSession_StartsIdle(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodPost, "/sessions", "alice", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	snap := decode[domain.ClockSnapshot](t, resp)
	assert.NotEmpty(t, snap.Session.ID)
	assert.Equal(t, "alice", snap.Session.UserID)
	assert.False(t, snap.Stopwatch.Running)
	assert.Equal(t, "00:00.00", snap.Stopwatch.Display)
	assert.Equal(t, "00:00", snap.Timer.Display)
}

func TestRequestsWithoutUserAreRejected(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := srv.do(t, http.MethodPost, "/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStopwatchCommands(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t, "alice")
	base := "/sessions/" + id + "/stopwatch/"

	resp := srv.do(t, http.MethodPost, base+"lap", "alice", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "lap while idle")

	resp = srv.do(t, http.MethodPost, base+"start", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[domain.ClockSnapshot](t, resp).Stopwatch.Running)

	srv.sched.Tick(10)
	resp = srv.do(t, http.MethodPost, base+"lap", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	srv.sched.Tick(5)
	resp = srv.do(t, http.MethodPost, base+"toggle", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	snap := decode[domain.ClockSnapshot](t, resp).Stopwatch
	assert.False(t, snap.Running)
	assert.Equal(t, 1500*time.Millisecond, snap.Elapsed)
	assert.Equal(t, "00:01.50", snap.Display)
	assert.Equal(t, []string{"00:01.00"}, snap.Laps)

	resp = srv.do(t, http.MethodPost, base+"reset", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decode[domain.ClockSnapshot](t, resp).Stopwatch
	assert.Zero(t, snap.Elapsed)
	assert.Empty(t, snap.Laps)
}

func TestTimerRunsToCompletion(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t, "alice")
	base := "/sessions/" + id + "/timer"

	resp := srv.do(t, http.MethodPost, base+"/start", "alice", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "zero duration")

	resp = srv.do(t, http.MethodPut, base, "alice", domain.TimerSetting{Seconds: 3})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, base+"/start", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "00:03", decode[domain.ClockSnapshot](t, resp).Timer.Display)

	resp = srv.do(t, http.MethodPut, base, "alice", domain.TimerSetting{Seconds: 5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "configure while running")

	srv.sched.Tick(3)

	resp = srv.do(t, http.MethodGet, "/sessions/"+id, "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[domain.ClockSnapshot](t, resp).Timer
	assert.False(t, snap.Running)
	assert.True(t, snap.Completed)
	assert.Zero(t, snap.Remaining)
	assert.Equal(t, 0, srv.sched.Active())
}

func TestTimerRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"minutes out of range", http.MethodPut, "/timer", domain.TimerSetting{Minutes: 60}, http.StatusBadRequest},
		{"hours out of range", http.MethodPut, "/timer", domain.TimerSetting{Hours: 25}, http.StatusBadRequest},
		{"malformed body", http.MethodPut, "/timer", "not an object", http.StatusBadRequest},
		{"lap on timer", http.MethodPost, "/timer/lap", nil, http.StatusBadRequest},
		{"configure via POST", http.MethodPost, "/timer/configure", nil, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, "/sessions/"+id+tt.path, "alice", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t, "alice")

	resp := srv.do(t, http.MethodGet, "/sessions/"+id, "bob", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/sessions/"+id+"/stopwatch/start", "bob", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, "/sessions/"+id, "alice", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/sessions/"+id, "alice", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryRoutesNeedJournal(t *testing.T) {
	srv := newTestServer(t, nil)
	id := srv.createSession(t, "alice")

	resp := srv.do(t, http.MethodGet, "/sessions/"+id+"/history", "alice", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHistoryRecordsBoundaryEvents(t *testing.T) {
	repo, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := newTestServer(t, repo)
	id := srv.createSession(t, "alice")
	base := "/sessions/" + id + "/stopwatch/"

	srv.do(t, http.MethodPost, base+"start", "alice", nil)
	srv.sched.Tick(10)
	srv.do(t, http.MethodPost, base+"lap", "alice", nil)
	srv.do(t, http.MethodPost, base+"stop", "alice", nil)

	var records []storage.EventRecord
	require.Eventually(t, func() bool {
		resp := srv.do(t, http.MethodGet, "/sessions/"+id+"/history", "alice", nil)
		if resp.StatusCode != http.StatusOK {
			return false
		}
		records = decode[[]storage.EventRecord](t, resp)
		return len(records) == 3
	}, 2*time.Second, 20*time.Millisecond)

	for _, rec := range records {
		assert.NotEqual(t, domain.EventTick, rec.Kind)
		assert.Equal(t, domain.SourceStopwatch, rec.Source)
	}

	resp := srv.do(t, http.MethodGet, "/history", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recent := decode[[]storage.EventRecord](t, resp)
	require.Len(t, recent, 3)
	assert.Equal(t, domain.EventStopped, recent[0].Kind, "newest first")

	future := url.QueryEscape(time.Now().Add(time.Hour).Format(time.RFC3339))
	resp = srv.do(t, http.MethodGet, "/history?since="+future, "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]storage.EventRecord](t, resp))

	resp = srv.do(t, http.MethodGet, "/history?since=yesterday", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/history", "bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]storage.EventRecord](t, resp))

	resp = srv.do(t, http.MethodGet, "/stats", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[storage.UserStats](t, resp)
	assert.Equal(t, 1, stats.StopwatchRuns)
	assert.Equal(t, 1, stats.Laps)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.createSession(t, "alice")

	resp := srv.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "clockd_sessions_active 1")
}
