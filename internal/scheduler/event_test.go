package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("trigger completes a bare event", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("bare")
		require.NoError(t, err)
		assert.Equal(t, Pending, ev.Handle().State())

		ev.Trigger()
		require.NoError(t, ev.Handle().Wait(ctx))
		assert.Equal(t, Completed, ev.Handle().State())
	})

	t.Run("trigger is idempotent", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("twice")
		require.NoError(t, err)
		ev.Trigger()
		ev.Trigger()
		require.NoError(t, ev.Handle().Wait(ctx))
	})

	t.Run("event gates a dependent launch", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("gate")
		require.NoError(t, err)

		var ran atomic.Bool
		h, err := s.Launch(ctx, "gated", func(ctx context.Context) (any, error) {
			ran.Store(true)
			return nil, nil
		}, After(ev.Handle()))
		require.NoError(t, err)

		done, err := h.WaitTimeout(ctx, 30*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, done)
		assert.False(t, ran.Load())

		ev.Trigger()
		require.NoError(t, h.Wait(ctx))
		assert.True(t, ran.Load())
	})

	t.Run("trigger before prerequisites still waits for them", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		release := make(chan struct{})
		pre, err := s.Launch(ctx, "pre", func(ctx context.Context) (any, error) {
			<-release
			return nil, nil
		})
		require.NoError(t, err)

		ev, err := s.NewEvent("joined")
		require.NoError(t, err)
		require.NoError(t, ev.AddPrerequisite(pre))

		ev.Trigger()
		done, err := ev.Handle().WaitTimeout(ctx, 30*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, done, "event must hold until the prerequisite resolves")

		close(release)
		require.NoError(t, ev.Handle().Wait(ctx))
	})

	t.Run("multiple prerequisites all gate the event", func(t *testing.T) {
		s := newTestScheduler(t, 4)

		releaseA := make(chan struct{})
		releaseB := make(chan struct{})
		a, err := s.Launch(ctx, "a", func(ctx context.Context) (any, error) {
			<-releaseA
			return nil, nil
		})
		require.NoError(t, err)
		b, err := s.Launch(ctx, "b", func(ctx context.Context) (any, error) {
			<-releaseB
			return nil, nil
		})
		require.NoError(t, err)

		ev, err := s.NewEvent("join")
		require.NoError(t, err)
		require.NoError(t, ev.AddPrerequisite(a))
		require.NoError(t, ev.AddPrerequisite(b))
		ev.Trigger()

		close(releaseA)
		done, err := ev.Handle().WaitTimeout(ctx, 30*time.Millisecond)
		require.NoError(t, err)
		assert.False(t, done, "one live prerequisite must still hold the event")

		close(releaseB)
		require.NoError(t, ev.Handle().Wait(ctx))
	})

	t.Run("prerequisite on terminal event fails", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("finished")
		require.NoError(t, err)
		ev.Trigger()
		require.NoError(t, ev.Handle().Wait(ctx))

		other, err := s.Launch(ctx, "other", noop)
		require.NoError(t, err)
		assert.ErrorContains(t, ev.AddPrerequisite(other), "already terminal")
	})

	t.Run("nil prerequisite fails", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("guarded")
		require.NoError(t, err)
		assert.ErrorContains(t, ev.AddPrerequisite(nil), "nil prerequisite")
		ev.Trigger()
	})
}

func TestEventCycleRejection(t *testing.T) {
	ctx := context.Background()

	t.Run("direct self-cycle", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("self")
		require.NoError(t, err)
		err = ev.AddPrerequisite(ev.Handle())
		assert.ErrorIs(t, err, ErrPrerequisiteCycle)

		// The edge was rejected, so the event still completes on trigger.
		ev.Trigger()
		require.NoError(t, ev.Handle().Wait(ctx))
	})

	t.Run("two-phase cycle through a launched node", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("root")
		require.NoError(t, err)
		mid, err := s.Launch(ctx, "mid", noop, After(ev.Handle()))
		require.NoError(t, err)
		tail, err := s.Launch(ctx, "tail", noop, After(mid))
		require.NoError(t, err)

		err = ev.AddPrerequisite(tail)
		assert.ErrorIs(t, err, ErrPrerequisiteCycle)

		ev.Trigger()
		require.NoError(t, WaitAll(ctx, mid, tail))
	})

	t.Run("unrelated edge is accepted", func(t *testing.T) {
		s := newTestScheduler(t, 2)

		ev, err := s.NewEvent("join")
		require.NoError(t, err)
		free, err := s.Launch(ctx, "free", noop)
		require.NoError(t, err)

		require.NoError(t, ev.AddPrerequisite(free))
		ev.Trigger()
		require.NoError(t, ev.Handle().Wait(ctx))
	})
}
