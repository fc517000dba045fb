package reactive

import (
	"sync"
	"testing"
)

func TestTargetStackNesting(t *testing.T) {
	// A watcher's getter forcing evaluation of another watcher must
	// restore the outer target afterwards (strict LIFO nesting).
	obj := NewObject(map[string]any{"n": 1})

	inner := NewWatcher(func() any { return obj.Get("n") }, nil, Lazy())

	var duringInner, afterInner *Watcher
	var outer *Watcher
	outer = NewWatcher(func() any {
		inner.EvaluateNow()
		duringInner = currentWatcher()
		_ = obj.Get("n")
		afterInner = currentWatcher()
		return nil
	}, nil)

	if duringInner != outer || afterInner != outer {
		t.Error("outer watcher not restored after nested evaluation")
	}
	if currentWatcher() != nil {
		t.Error("target stack not empty after evaluation")
	}
}

func TestTargetStackBalancedUnderPanic(t *testing.T) {
	func() {
		defer func() { _ = recover() }()
		NewWatcher(func() any { panic("boom") }, nil)
	}()

	if currentWatcher() != nil {
		t.Error("panicking getter left the target stack unbalanced")
	}
}

func TestUntracked(t *testing.T) {
	tick := useManualTick(t)
	obj := NewObject(map[string]any{"n": 1})

	runs := 0
	NewWatcher(func() any {
		runs++
		var v any
		Untracked(func() { v = obj.Get("n") })
		return v
	}, func(_, _ any) {})

	obj.Set("n", 2)
	tick.tick()

	if runs != 1 {
		t.Errorf("untracked read created a subscription, runs=%d", runs)
	}
}

func TestCleanupGoroutineReleasesContext(t *testing.T) {
	obj := NewObject(map[string]any{"n": 1})

	var wg sync.WaitGroup
	wg.Add(1)
	var gid uint64
	go func() {
		defer wg.Done()
		gid = getGoroutineID()

		w := NewWatcher(func() any { return obj.Get("n") }, nil, Lazy())
		w.EvaluateNow()
		w.Teardown()

		if _, ok := trackingContexts.Load(gid); !ok {
			t.Error("evaluation did not create a tracking context")
		}
		CleanupGoroutine()
	}()
	wg.Wait()

	if _, ok := trackingContexts.Load(gid); ok {
		t.Error("tracking context survived CleanupGoroutine")
	}
}

func TestPerGoroutineTracking(t *testing.T) {
	// Each goroutine has its own tracking context: evaluation on one
	// goroutine must not leak a target into another.
	obj := NewObject(map[string]any{"n": 1})

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})

	NewWatcher(func() any {
		go func() {
			defer wg.Done()
			if currentWatcher() != nil {
				t.Error("target leaked into spawned goroutine")
			}
			<-done
		}()
		return obj.Get("n")
	}, nil)

	close(done)
	wg.Wait()
}
