package eclipse

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// initializer runs the staged initialization of one pass. Failures never abort a pass,
// they are counted and reported.
type initializer struct {
	metrics *Metrics
	limit   int

	failures atomic.Int32
}

type hookFilter func(*HookDef) bool

func allHooks(*HookDef) bool { return true }

func threadSafeHooks(h *HookDef) bool { return h.descriptor.ThreadSafe }

func serialHooks(h *HookDef) bool { return !h.descriptor.ThreadSafe }

// run initializes instances in three phases: thread-safe services before main,
// main-thread services, then thread-safe services after main.
func (in *initializer) run(ctx context.Context, instances []*instance) {
	in.threaded(ctx, ThreadSafeBeforeMain, instances)
	in.main(ctx, instances)
	in.threaded(ctx, ThreadSafeAfterMain, instances)
}

func (in *initializer) main(ctx context.Context, instances []*instance) {
	for _, inst := range instances {
		if inst.summary.Descriptor.ThreadMode != MainThread {
			continue
		}

		start := time.Now()
		ok := in.hooks(ctx, inst, inst.summary.Preload, allHooks)
		ok = in.initialize(ctx, inst) && ok
		ok = in.hooks(ctx, inst, inst.summary.Afterload, allHooks) && ok
		in.metrics.recordInitialize(MainThread, ok, time.Since(start))
	}
}

// threaded runs serial preloads one by one, then every service's thread-safe preloads,
// Initialize and thread-safe afterloads concurrently, then serial afterloads once all
// workers are done.
func (in *initializer) threaded(ctx context.Context, mode ThreadMode, all []*instance) {
	var instances []*instance
	for _, inst := range all {
		if inst.summary.Descriptor.ThreadMode == mode {
			instances = append(instances, inst)
		}
	}
	if len(instances) == 0 {
		return
	}

	for _, inst := range instances {
		in.hooks(ctx, inst, inst.summary.Preload, serialHooks)
	}

	var g errgroup.Group
	if in.limit > 0 {
		g.SetLimit(in.limit)
	}

	for _, inst := range instances {
		g.Go(func() error {
			start := time.Now()
			ok := in.hooks(ctx, inst, inst.summary.Preload, threadSafeHooks)
			ok = in.initialize(ctx, inst) && ok
			ok = in.hooks(ctx, inst, inst.summary.Afterload, threadSafeHooks) && ok
			in.metrics.recordInitialize(mode, ok, time.Since(start))
			return nil
		})
	}

	_ = g.Wait()

	for _, inst := range instances {
		in.hooks(ctx, inst, inst.summary.Afterload, serialHooks)
	}
}

func (in *initializer) hooks(ctx context.Context, inst *instance, hooks []*HookDef, filter hookFilter) bool {
	ok := true
	for _, h := range hooks {
		if !filter(h) {
			continue
		}
		if err := invokeHook(ctx, inst, h); err != nil {
			in.fail(inst, h.descriptor.Phase.String())
			ok = false
		}
	}
	return ok
}

func (in *initializer) initialize(ctx context.Context, inst *instance) bool {
	if err := initializeService(ctx, inst); err != nil {
		in.fail(inst, "initialize")
		return false
	}
	return true
}

func (in *initializer) fail(inst *instance, kind string) {
	in.failures.Add(1)
	in.metrics.recordFailure(inst.summary.Descriptor.ThreadMode.String(), kind)
}
