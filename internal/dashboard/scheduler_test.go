package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	c, _ := newController(t, newStore(), nil)
	_, err := NewScheduler(context.Background(), c, "whenever", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whenever")
}

func TestScheduler_Reloads(t *testing.T) {
	c, _ := newController(t, newStore(), nil)
	s, err := NewScheduler(context.Background(), c, "@every 1s", discardLogger())
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		return c.Snapshot().Generation > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_SkipsWhenContextDone(t *testing.T) {
	c, _ := newController(t, newStore(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := NewScheduler(ctx, c, "@every 1s", discardLogger())
	require.NoError(t, err)
	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop(context.Background())

	assert.Zero(t, c.Snapshot().Generation)
}
