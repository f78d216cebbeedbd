package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/proposal"
	"github.com/chainsafe/dao-governance/pkg/proposal/service/mocks"
	"github.com/chainsafe/dao-governance/pkg/realtime"
)

type fakeReady bool

func (f fakeReady) IsReady() bool { return bool(f) }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout:  5 * time.Second,
			RateLimitPerSec: 100,
			RateLimitBurst:  100,
		},
		Realtime:   config.RealtimeConfig{HeartbeatTimeout: time.Minute, SweepInterval: time.Second, MaxClients: 10, SendBuffer: 8},
		Monitoring: config.MonitoringConfig{Enabled: true},
	}
}

func newRouter(t *testing.T, cfg *config.Config, svc *services) http.Handler {
	t.Helper()
	if svc.hub == nil {
		svc.hub = realtime.NewHub(&cfg.Realtime, zap.NewNop())
	}
	return (&Server{cfg: cfg}).setupRouter(svc, zap.NewNop())
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newRouter(t, testConfig(), &services{engine: fakeReady(false), store: fakePinger{}})

	rec := get(h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRouter_Ready(t *testing.T) {
	tests := []struct {
		name     string
		ready    bool
		pingErr  error
		wantCode int
		wantBody string
	}{
		{"backfill running", false, nil, http.StatusServiceUnavailable, "NOT_READY"},
		{"database down", true, errors.New("connection refused"), http.StatusServiceUnavailable, "NOT_READY"},
		{"ready", true, nil, http.StatusOK, "READY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRouter(t, testConfig(), &services{engine: fakeReady(tt.ready), store: fakePinger{err: tt.pingErr}})

			rec := get(h, "/ready")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	cfg := testConfig()
	h := newRouter(t, cfg, &services{engine: fakeReady(true), store: fakePinger{}})
	rec := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	cfg = testConfig()
	cfg.Monitoring.Enabled = false
	h = newRouter(t, cfg, &services{engine: fakeReady(true), store: fakePinger{}})
	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code)
}

func TestRouter_MountsAPIUnderVersionPrefix(t *testing.T) {
	proposals := mocks.NewService(t)
	proposals.EXPECT().GetProposals(mock.Anything, &proposal.ListFilter{}).
		Return(&proposal.Page{Items: []*proposal.View{}, Page: 1, Limit: 10}, nil).
		Once()

	h := newRouter(t, testConfig(), &services{proposals: proposals, engine: fakeReady(true), store: fakePinger{}})

	rec := get(h, "/api/v1/proposals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"limit":10,"total_pages":0}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(h, "/proposals").Code)
}

func TestRouter_RateLimitsAPI(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitPerSec = 0.001
	cfg.Server.RateLimitBurst = 1

	proposals := mocks.NewService(t)
	proposals.EXPECT().GetProposals(mock.Anything, mock.Anything).
		Return(&proposal.Page{Items: []*proposal.View{}}, nil).
		Once()

	h := newRouter(t, cfg, &services{proposals: proposals, engine: fakeReady(true), store: fakePinger{}})

	assert.Equal(t, http.StatusOK, get(h, "/api/v1/proposals").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/api/v1/proposals").Code)
	// Operational endpoints are not limited.
	assert.Equal(t, http.StatusOK, get(h, "/health").Code)
}

func TestRouter_RequiredSignatures(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequireSignatures = true

	h := newRouter(t, cfg, &services{proposals: mocks.NewService(t), engine: fakeReady(true), store: fakePinger{}})

	rec := get(h, "/api/v1/proposals")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"signature and message required","code":401}`, rec.Body.String())
}

func TestRouter_MethodNotAllowedIsJSON(t *testing.T) {
	h := newRouter(t, testConfig(), &services{proposals: mocks.NewService(t), engine: fakeReady(true), store: fakePinger{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/proposals", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"method DELETE not allowed","code":405}`, rec.Body.String())
}
