package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/newsdraft/pkg/domain"
	"github.com/umputun/newsdraft/pkg/scheduler"
	"github.com/umputun/newsdraft/server/mocks"
)

type testDeps struct {
	store     *mocks.StoreMock
	styles    *mocks.StylesMock
	feedback  *mocks.FeedbackMock
	scheduler *mocks.SchedulerMock
	social    *mocks.SocialMock
}

func testServer(t *testing.T) (*Server, *testDeps) {
	t.Helper()
	deps := &testDeps{
		store:     &mocks.StoreMock{PingFunc: func(context.Context) error { return nil }},
		styles:    &mocks.StylesMock{},
		feedback:  &mocks.FeedbackMock{},
		scheduler: &mocks.SchedulerMock{RunningFunc: func() bool { return true },
			RunTimeoutFunc: func() time.Duration { return 2 * time.Minute }},
		social: &mocks.SocialMock{},
	}
	cfg := &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) {
			return ":8080", 30 * time.Second
		},
	}
	srv := New(Params{Config: cfg, Store: deps.store, Styles: deps.styles, Feedback: deps.feedback,
		Scheduler: deps.scheduler, Social: deps.social, Gatherer: prometheus.NewRegistry()}, "test", false)
	return srv, deps
}

// request sends a request through the router, empty owner means no owner header
func request(t *testing.T, srv *Server, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestServer_New(t *testing.T) {
	srv := New(Params{Config: &mocks.ConfigProviderMock{}}, "1.0.0", true)
	assert.NotNil(t, srv)
	assert.Equal(t, "1.0.0", srv.version)
	assert.True(t, srv.debug)
	assert.Equal(t, prometheus.DefaultGatherer, srv.Gatherer)
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	err = listener.Close()
	require.NoError(t, err)

	cfg := &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) {
			return fmt.Sprintf("127.0.0.1:%d", port), 30 * time.Second
		},
	}
	srv := New(Params{Config: cfg, Store: &mocks.StoreMock{}, Scheduler: &mocks.SchedulerMock{}}, "1.0.0", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// wait for server to start
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return err == nil && resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, time.Second, 20*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/schedule", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "newsdraft", resp.Header.Get("App-Name"))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestServer_RunOutlivesWriteTimeout(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) {
			return fmt.Sprintf("127.0.0.1:%d", port), time.Second
		},
	}
	sched := &mocks.SchedulerMock{
		RunTimeoutFunc: func() time.Duration { return 5 * time.Second },
		RunNowFunc: func(ctx context.Context, owner string) (*domain.DeliveryAttempt, error) {
			time.Sleep(1500 * time.Millisecond) // longer than the server write timeout
			return &domain.DeliveryAttempt{Owner: owner, Attempts: 1, Status: domain.AttemptDelivered}, nil
		},
	}
	srv := New(Params{Config: cfg, Store: &mocks.StoreMock{}, Scheduler: sched}, "1.0.0", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Second, 20*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("http://127.0.0.1:%d/api/v1/run", port), http.NoBody)
	require.NoError(t, err)
	req.Header.Set(OwnerHeader, "alice")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "response is written after the server write timeout")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res runResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.NotNil(t, res.Attempt)
	assert.Equal(t, domain.AttemptDelivered, res.Attempt.Status)
	assert.Len(t, sched.RunTimeoutCalls(), 1)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestServer_statusHandler(t *testing.T) {
	srv, deps := testServer(t)

	w := request(t, srv, "GET", "/api/v1/status", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "test", status["version"])
	assert.Equal(t, true, status["scheduler"])
	assert.Equal(t, "ok", status["database"])
	assert.NotEmpty(t, status["time"])

	deps.store.PingFunc = func(context.Context) error { return errors.New("database is locked") }
	w = request(t, srv, "GET", "/api/v1/status", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status["status"])
	assert.Equal(t, "database is locked", status["database"])
}

func TestServer_OwnerRequired(t *testing.T) {
	srv, _ := testServer(t)
	for _, path := range []string{"/api/v1/schedule", "/api/v1/sources", "/api/v1/drafts", "/api/v1/report", "/api/v1/style"} {
		w := request(t, srv, "GET", path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Contains(t, w.Body.String(), "missing X-Owner-ID header")
	}
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "newsdraft_test_total", Help: "test counter"})
	reg.MustRegister(counter)
	counter.Add(3)

	srv := New(Params{Config: &mocks.ConfigProviderMock{}, Gatherer: reg}, "test", false)
	w := request(t, srv, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "newsdraft_test_total 3")
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("owner a: %w", scheduler.ErrInFlight), http.StatusConflict},
		{domain.ErrAttemptsExhausted, http.StatusConflict},
		{domain.ErrInsufficientSamples, http.StatusUnprocessableEntity},
		{domain.ErrNoContent, http.StatusUnprocessableEntity},
		{domain.ErrGenerationRejected, http.StatusBadGateway},
		{&domain.TransportError{Transport: "email", Err: errors.New("smtp")}, http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusCode(tt.err))
		})
	}
}

func TestRenderError(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", http.NoBody)

	w := httptest.NewRecorder()
	renderError(w, req, errors.New("test error"), http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"test error"}`, w.Body.String())

	w = httptest.NewRecorder()
	renderError(w, req, nil, http.StatusInternalServerError)
	assert.JSONEq(t, `{"error":"unknown error"}`, w.Body.String())
}
