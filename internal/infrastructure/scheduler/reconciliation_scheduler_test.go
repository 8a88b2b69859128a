package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReconciliationSchedulerConfig(t *testing.T) {
	cfg := DefaultReconciliationSchedulerConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.Interval)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
}

func TestJitteredInterval(t *testing.T) {
	s := NewReconciliationScheduler(nil, ReconciliationSchedulerConfig{
		Interval: time.Hour,
	}, nil)

	for i := 0; i < 100; i++ {
		d := s.jitteredInterval()
		assert.GreaterOrEqual(t, d, time.Hour)
		assert.Less(t, d, time.Hour+6*time.Minute)
	}
}

func TestDisabledSchedulerDoesNotRun(t *testing.T) {
	s := NewReconciliationScheduler(nil, ReconciliationSchedulerConfig{
		Enabled:  false,
		Interval: time.Millisecond,
	}, nil)

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(5 * time.Millisecond)
	s.Stop()
}
