package latency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelayStaysInRange(t *testing.T) {
	s := NewSimulator(10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 100; i++ {
		d := s.Delay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 20*time.Millisecond)
	}
}

func TestDelayWithEmptyRange(t *testing.T) {
	assert.Equal(t, 5*time.Millisecond, NewSimulator(5*time.Millisecond, 5*time.Millisecond).Delay())
	assert.Equal(t, time.Duration(0), NewSimulator(0, 0).Delay())
}

func TestWaitHonoursCancellation(t *testing.T) {
	s := NewSimulator(time.Hour, 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitWithoutDelay(t *testing.T) {
	require.NoError(t, NewSimulator(0, 0).Wait(context.Background()))
}
