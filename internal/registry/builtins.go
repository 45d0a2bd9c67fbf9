package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/taskgrid/internal/affinity"
	"github.com/vk/taskgrid/internal/ctxlog"
)

// CoreModules returns the built-in runner modules. emit needs the affinity
// queue and the writer the host drains output to.
func CoreModules(queue *affinity.Queue, out io.Writer) []Module {
	return []Module{
		&SleepModule{},
		&SumModule{},
		&EmitModule{Queue: queue, Out: out},
		&FailModule{},
	}
}

// SleepModule registers the "sleep" kind: a background delay standing in
// for real I/O or computation.
//
// Arguments: duration_ms (number, default 10).
// Result: the number of milliseconds slept.
type SleepModule struct{}

// Register implements Module.
func (m *SleepModule) Register(r *Registry) {
	r.RegisterRunner("sleep", &RegisteredRunner{
		Description: "sleeps for duration_ms milliseconds",
		Fn:          runSleep,
	})
}

func runSleep(ctx context.Context, args cty.Value, deps map[string]cty.Value) (cty.Value, error) {
	ms, err := attrInt(args, "duration_ms", 10)
	if err != nil {
		return cty.NilVal, err
	}
	if ms < 0 {
		return cty.NilVal, fmt.Errorf("duration_ms must be non-negative, got %d", ms)
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	}
	return cty.NumberIntVal(ms), nil
}

// SumModule registers the "sum" kind: numeric fan-in. It adds its own
// values argument to every numeric prerequisite result, so a combiner's
// output is independent of the order its sources completed in.
//
// Arguments: values (list of numbers, optional).
// Result: the total as a number.
type SumModule struct{}

// Register implements Module.
func (m *SumModule) Register(r *Registry) {
	r.RegisterRunner("sum", &RegisteredRunner{
		Description: "sums the values argument and all numeric prerequisite results",
		Fn:          runSum,
	})
}

func runSum(ctx context.Context, args cty.Value, deps map[string]cty.Value) (cty.Value, error) {
	values, err := attrNumberList(args, "values")
	if err != nil {
		return cty.NilVal, err
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	for name, dep := range deps {
		if dep == cty.NilVal || dep.IsNull() || dep.Type() != cty.Number {
			continue
		}
		f, _ := dep.AsBigFloat().Float64()
		ctxlog.FromContext(ctx).Debug("Summing prerequisite result.", "prerequisite", name, "value", f)
		total += f
	}
	return cty.NumberFloatVal(total), nil
}

// EmitModule registers the "emit" kind: its body runs on a worker, but the
// actual write is posted to the affinity queue so all output is serialized
// on the host's designated thread.
//
// Arguments: message (string, required).
// Result: the message.
type EmitModule struct {
	Queue *affinity.Queue
	Out   io.Writer
}

// Register implements Module.
func (m *EmitModule) Register(r *Registry) {
	r.RegisterRunner("emit", &RegisteredRunner{
		Description: "posts message to the affinity queue for output on the host thread",
		Fn:          m.run,
	})
}

func (m *EmitModule) run(ctx context.Context, args cty.Value, deps map[string]cty.Value) (cty.Value, error) {
	msg, err := attrString(args, "message", "")
	if err != nil {
		return cty.NilVal, err
	}
	if msg == "" {
		return cty.NilVal, errors.New("emit requires a non-empty message argument")
	}
	if err := m.Queue.Post(func() {
		fmt.Fprintln(m.Out, msg)
	}); err != nil {
		return cty.NilVal, fmt.Errorf("posting to affinity queue: %w", err)
	}
	return cty.StringVal(msg), nil
}

// FailModule registers the "fail" kind, used to exercise failure paths in
// grids and tests.
//
// Arguments: message (string, default "task failed").
type FailModule struct{}

// Register implements Module.
func (m *FailModule) Register(r *Registry) {
	r.RegisterRunner("fail", &RegisteredRunner{
		Description: "always fails with the message argument",
		Fn:          runFail,
	})
}

func runFail(ctx context.Context, args cty.Value, deps map[string]cty.Value) (cty.Value, error) {
	msg, err := attrString(args, "message", "task failed")
	if err != nil {
		return cty.NilVal, err
	}
	return cty.NilVal, errors.New(msg)
}
