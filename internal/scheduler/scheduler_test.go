package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/tj/assert"
)

type countingRefresher struct {
	calls atomic.Int32
	held  bool
}

func (r *countingRefresher) Refresh() bool {
	r.calls.Add(1)
	return r.held
}

func TestZeroIntervalDisablesScheduler(t *testing.T) {
	r := &countingRefresher{held: true}
	s := New(r, 0, nil)
	assert.NoError(t, s.Start())
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), r.calls.Load())
	assert.False(t, s.scheduler.IsRunning())
}

func TestSchedulerRefreshesPeriodically(t *testing.T) {
	r := &countingRefresher{held: true}
	s := New(r, 20*time.Millisecond, nil)
	assert.NoError(t, s.Start())

	deadline := time.Now().Add(2 * time.Second)
	for r.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	assert.True(t, r.calls.Load() >= 2)
}

func TestTickWithoutHeldBundle(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, time.Minute, nil)
	s.tick()
	assert.Equal(t, int32(1), r.calls.Load())
}
