package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called().Error(0)
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		dataDir    func(t *testing.T) string
		pingErr    error
		noStore    bool
		wantStatus string
		wantStore  string
	}{
		{
			name:       "ready with store",
			dataDir:    func(t *testing.T) string { return t.TempDir() },
			wantStatus: "ready",
			wantStore:  "ready",
		},
		{
			name:       "store disabled",
			dataDir:    func(t *testing.T) string { return t.TempDir() },
			noStore:    true,
			wantStatus: "ready",
			wantStore:  "disabled",
		},
		{
			name:       "store unreachable",
			dataDir:    func(t *testing.T) string { return t.TempDir() },
			pingErr:    errors.New("dial tcp: refused"),
			wantStatus: "not_ready",
			wantStore:  "not_ready",
		},
		{
			name:       "missing data directory",
			dataDir:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent") },
			noStore:    true,
			wantStatus: "not_ready",
			wantStore:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hs *HealthService
			if tt.noStore {
				hs = NewHealthService(BuildInfo{Version: "test"}, tt.dataDir(t), nil, quietLogger())
			} else {
				pinger := new(MockPinger)
				pinger.On("Ping").Return(tt.pingErr)
				hs = NewHealthService(BuildInfo{Version: "test"}, tt.dataDir(t), pinger, quietLogger())
			}

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantStore, status.Services["store"].Status)
			assert.Equal(t, "test", status.Version)
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "1.2.0", Commit: "abc123"}, ".", nil, quietLogger())

	info := hs.Version()
	assert.Equal(t, "1.2.0", info["version"])
	assert.Equal(t, "abc123", info["commit"])
	assert.NotContains(t, info, "build_time")

	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)
	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")
}
