package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the active-watcher state for one goroutine.
// Each goroutine gets its own context, so concurrent evaluation on separate
// goroutines cannot corrupt each other's dependency collection.
type trackingContext struct {
	// current is the watcher currently collecting dependencies.
	// nil means reads do not create subscriptions.
	current *Watcher

	// stack enables re-entrant evaluation: a watcher's getter may force
	// evaluation of another watcher (e.g. a lazy computed value read
	// mid-render). Push/pop is strictly LIFO.
	stack []*Watcher
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. Implementation detail; never
// exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating it on first use.
func getTrackingContext() *trackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}

	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// currentWatcher returns the watcher currently collecting dependencies, or
// nil when no evaluation is in progress on this goroutine.
func currentWatcher() *Watcher {
	return getTrackingContext().current
}

// pushTarget makes w the active watcher. Every pushTarget must be paired
// with exactly one popTarget; Watcher.get guarantees the pop with a defer
// so panicking getters cannot leave the stack unbalanced.
func pushTarget(w *Watcher) {
	ctx := getTrackingContext()
	ctx.stack = append(ctx.stack, w)
	ctx.current = w
}

// popTarget restores the previously active watcher.
func popTarget() {
	ctx := getTrackingContext()
	if len(ctx.stack) == 0 {
		return
	}
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	if len(ctx.stack) > 0 {
		ctx.current = ctx.stack[len(ctx.stack)-1]
	} else {
		ctx.current = nil
	}
}

// Untracked runs fn with dependency collection suspended. Reads inside fn
// do not subscribe the active watcher.
func Untracked(fn func()) {
	pushTarget(nil)
	defer popTarget()
	fn()
}

// CleanupGoroutine removes the tracking context for the current goroutine.
// Hosts that spawn short-lived goroutines which evaluate watchers should
// call it before the goroutine exits, or dead entries accumulate.
// Optional otherwise; contexts are lightweight and reused on collision.
func CleanupGoroutine() {
	trackingContexts.Delete(getGoroutineID())
}
