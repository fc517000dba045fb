package reactive

import (
	"sync"
	"time"
)

// FlushObserver receives scheduler lifecycle events. Implementations must
// not block: they are called synchronously on the flushing goroutine.
// The telemetry and devtools packages attach through this interface.
type FlushObserver interface {
	// FlushStart fires when a flush begins, with the number of watchers
	// queued at that point (more may splice in while it runs).
	FlushStart(queued int)

	// WatcherRan fires after each watcher re-run within a flush.
	WatcherRan(id uint64)

	// FlushEnd fires after the queue drains and state is reset.
	FlushEnd(took time.Duration, runs int)

	// Runaway fires when a watcher id exceeds the repeat threshold and
	// is skipped for the remainder of the flush.
	Runaway(id uint64)
}

var (
	flushObserversMu sync.RWMutex
	flushObservers   []FlushObserver
)

// RegisterFlushObserver attaches an observer to the scheduler and returns
// a function that detaches it.
func RegisterFlushObserver(o FlushObserver) (remove func()) {
	flushObserversMu.Lock()
	flushObservers = append(flushObservers, o)
	flushObserversMu.Unlock()

	return func() {
		flushObserversMu.Lock()
		defer flushObserversMu.Unlock()
		for i, existing := range flushObservers {
			if existing == o {
				flushObservers = append(flushObservers[:i], flushObservers[i+1:]...)
				return
			}
		}
	}
}

func snapshotObservers() []FlushObserver {
	flushObserversMu.RLock()
	defer flushObserversMu.RUnlock()
	if len(flushObservers) == 0 {
		return nil
	}
	out := make([]FlushObserver, len(flushObservers))
	copy(out, flushObservers)
	return out
}

func notifyFlushStart(queued int) {
	for _, o := range snapshotObservers() {
		o.FlushStart(queued)
	}
}

func notifyWatcherRan(id uint64) {
	for _, o := range snapshotObservers() {
		o.WatcherRan(id)
	}
}

func notifyFlushEnd(took time.Duration, runs int) {
	for _, o := range snapshotObservers() {
		o.FlushEnd(took, runs)
	}
}

func notifyRunaway(id uint64) {
	for _, o := range snapshotObservers() {
		o.Runaway(id)
	}
}
