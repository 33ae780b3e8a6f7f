package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/studentmanagement/internal/config"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (p *flakyPinger) Ping(context.Context) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForDatabase(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		retries   int
		wantErr   bool
		wantCalls int
	}{
		{name: "first try", failures: 0, retries: 3, wantCalls: 1},
		{name: "recovers", failures: 2, retries: 3, wantCalls: 3},
		{name: "gives up", failures: 10, retries: 2, wantErr: true, wantCalls: 3},
		{name: "no retries", failures: 1, retries: 0, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &flakyPinger{failures: tt.failures}
			err := waitForDatabase(context.Background(), p, tt.retries, time.Millisecond, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, p.calls)
		})
	}
}

func TestWaitForDatabaseStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &flakyPinger{failures: 100}
	err := waitForDatabase(ctx, p, 50, time.Second, zerolog.Nop())
	require.Error(t, err)
	assert.LessOrEqual(t, p.calls, 1)
}

func TestPoolConfigFrom(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db"
	cfg.Database.Port = "5432"
	cfg.Database.User = "u"
	cfg.Database.Password = "p"
	cfg.Database.DBName = "school"
	cfg.Database.MaxOpenConns = 7
	cfg.Database.MaxIdleConns = 1
	cfg.Database.ConnMaxLifetime = "30m"

	pc, err := poolConfigFrom(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(1), pc.MinConns)
	assert.Equal(t, 30*time.Minute, pc.MaxConnLifetime)
	assert.Equal(t, "school", pc.ConnConfig.Database)
	assert.NotNil(t, pc.BeforeAcquire)

	cfg.Database.ConnMaxLifetime = "forever"
	_, err = poolConfigFrom(cfg, zerolog.Nop())
	require.Error(t, err)
}
