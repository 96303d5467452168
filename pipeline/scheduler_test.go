package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-harvester/utils"
)

func TestTriggerSkipsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	var runs atomic.Int32
	s := NewScheduler(context.Background(), func(ctx context.Context) {
		runs.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
	}, utils.NewNopLogger())

	require.True(t, s.Trigger())
	assert.True(t, s.Running())
	assert.False(t, s.Trigger(), "second trigger overlaps the first")

	close(release)
	require.Eventually(t, func() bool { return !s.Running() }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Trigger())

	s.Stop()
	assert.Equal(t, int32(2), runs.Load())
}

func TestStopCancelsRunningHarvest(t *testing.T) {
	cancelled := make(chan struct{})
	s := NewScheduler(context.Background(), func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	}, utils.NewNopLogger())

	require.True(t, s.Trigger())
	s.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("harvest was not cancelled")
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), func(context.Context) {}, utils.NewNopLogger())
	defer s.Stop()

	require.Error(t, s.Schedule("every tuesday"))
	require.NoError(t, s.Schedule("@hourly"))
	require.NoError(t, s.Schedule("30 6 * * *"))
}
