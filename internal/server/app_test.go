package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
	return mock
}

func testConfig() *config.Config {
	var c config.Config
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.MetricsAddr = "127.0.0.1:0"
	c.ShutdownTimeout = time.Second
	return &c
}

func TestNewApp_PingFailure(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	_, err := newApp(context.Background(), testConfig(), logging.Nop(), memory.NewManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping error")
}

func TestNewApp_OpenFailure(t *testing.T) {
	orig := openDB
	openDB = func(string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	t.Cleanup(func() { openDB = orig })

	_, err := newApp(context.Background(), testConfig(), logging.Nop(), memory.NewManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestMetricsMux(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectPing()

	app, err := newApp(context.Background(), testConfig(), logging.Nop(), memory.NewManager())
	require.NoError(t, err)
	mux := app.metricsMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))

	mock.ExpectPing()
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectPing().WillReturnError(errors.New("gone"))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRun_StopsOnCancel(t *testing.T) {
	mock := stubDB(t)
	mock.ExpectPing()

	app, err := newApp(context.Background(), testConfig(), logging.Nop(), memory.NewManager())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
