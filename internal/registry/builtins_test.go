package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/internal/affinity"
)

func TestCoreModules(t *testing.T) {
	var out strings.Builder
	queue := affinity.New(nil)

	r := New()
	for _, mod := range CoreModules(queue, &out) {
		mod.Register(r)
	}
	assert.Equal(t, []string{"emit", "fail", "sleep", "sum"}, r.Kinds())
}

func TestSleepRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("sleeps for the requested duration", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"duration_ms": cty.NumberIntVal(20),
		})
		start := time.Now()
		v, err := runSleep(ctx, args, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
		assert.True(t, cty.NumberIntVal(20).RawEquals(v))
	})

	t.Run("defaults when the argument is absent", func(t *testing.T) {
		v, err := runSleep(ctx, cty.EmptyObjectVal, nil)
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(10).RawEquals(v))
	})

	t.Run("rejects a negative duration", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"duration_ms": cty.NumberIntVal(-1),
		})
		_, err := runSleep(ctx, args, nil)
		assert.ErrorContains(t, err, "non-negative")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"duration_ms": cty.NumberIntVal(10000),
		})
		cancelCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := runSleep(cancelCtx, args, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSumRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("sums values and numeric prerequisites", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"values": cty.ListVal([]cty.Value{
				cty.NumberIntVal(1), cty.NumberIntVal(2),
			}),
		})
		deps := map[string]cty.Value{
			"a": cty.NumberIntVal(10),
			"b": cty.NumberFloatVal(0.5),
			"c": cty.StringVal("ignored"),
		}
		v, err := runSum(ctx, args, deps)
		require.NoError(t, err)
		f, _ := v.AsBigFloat().Float64()
		assert.InDelta(t, 13.5, f, 1e-9)
	})

	t.Run("empty inputs sum to zero", func(t *testing.T) {
		v, err := runSum(ctx, cty.EmptyObjectVal, nil)
		require.NoError(t, err)
		f, _ := v.AsBigFloat().Float64()
		assert.Zero(t, f)
	})

	t.Run("non-list values argument fails", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"values": cty.NumberIntVal(5),
		})
		_, err := runSum(ctx, args, nil)
		assert.ErrorContains(t, err, "not a list")
	})
}

func TestEmitRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("writes only when the queue is pumped", func(t *testing.T) {
		var out strings.Builder
		queue := affinity.New(nil)
		mod := &EmitModule{Queue: queue, Out: &out}

		args := cty.ObjectVal(map[string]cty.Value{
			"message": cty.StringVal("hello grid"),
		})
		v, err := mod.run(ctx, args, nil)
		require.NoError(t, err)
		assert.True(t, cty.StringVal("hello grid").RawEquals(v))
		assert.Empty(t, out.String(), "output must wait for the affinity pump")

		n, err := queue.Pump()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, "hello grid\n", out.String())
	})

	t.Run("empty message fails", func(t *testing.T) {
		mod := &EmitModule{Queue: affinity.New(nil), Out: &strings.Builder{}}
		_, err := mod.run(ctx, cty.EmptyObjectVal, nil)
		assert.ErrorContains(t, err, "non-empty message")
	})

	t.Run("closed queue surfaces the post failure", func(t *testing.T) {
		queue := affinity.New(nil)
		queue.Close()
		mod := &EmitModule{Queue: queue, Out: &strings.Builder{}}

		args := cty.ObjectVal(map[string]cty.Value{
			"message": cty.StringVal("late"),
		})
		_, err := mod.run(ctx, args, nil)
		assert.ErrorIs(t, err, affinity.ErrQueueClosed)
	})
}

func TestFailRunner(t *testing.T) {
	ctx := context.Background()

	t.Run("fails with the given message", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"message": cty.StringVal("planned outage"),
		})
		_, err := runFail(ctx, args, nil)
		assert.EqualError(t, err, "planned outage")
	})

	t.Run("fails with the default message", func(t *testing.T) {
		_, err := runFail(ctx, cty.EmptyObjectVal, nil)
		assert.EqualError(t, err, "task failed")
	})
}

func TestAttrHelpers(t *testing.T) {
	t.Run("string with wrong type fails", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"message": cty.ListValEmpty(cty.String),
		})
		_, err := attrString(args, "message", "")
		assert.ErrorContains(t, err, `argument "message"`)
	})

	t.Run("int with wrong type fails", func(t *testing.T) {
		args := cty.ObjectVal(map[string]cty.Value{
			"duration_ms": cty.StringVal("soon"),
		})
		_, err := attrInt(args, "duration_ms", 0)
		assert.ErrorContains(t, err, `argument "duration_ms"`)
	})

	t.Run("null args fall back to defaults", func(t *testing.T) {
		s, err := attrString(cty.NullVal(cty.EmptyObject), "anything", "fallback")
		require.NoError(t, err)
		assert.Equal(t, "fallback", s)
	})
}
