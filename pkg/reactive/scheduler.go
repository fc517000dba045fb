package reactive

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// maxUpdateCount is the repeat threshold for one watcher id within a single
// flush. Exceeding it is treated as an infinite update loop.
const maxUpdateCount = 100

// Deferral schedules a callback for a future logical tick. The engine
// schedules at most one flush per tick through it (leading-edge debounce:
// any number of triggers within the tick produce exactly one flush).
type Deferral func(func())

// schedulerState is the process-wide flush queue. It is reset to empty
// exactly once after each flush completes.
type schedulerState struct {
	mu sync.Mutex

	queue    []*Watcher
	has      map[uint64]bool
	circular map[uint64]int
	waiting  bool
	flushing bool
	index    int

	// post-flush hook queues, drained strictly after the watcher queue
	// and the state reset: activated in FIFO order, updated in LIFO.
	activatedQueue []func()
	updatedQueue   []func()

	deferral Deferral
}

var sched = &schedulerState{
	has:      make(map[uint64]bool),
	circular: make(map[uint64]int),
}

// SetDeferral injects the tick primitive used to defer flushes (e.g. a
// microtask queue or an event-loop hook). Passing nil restores the default
// immediate mode, in which a flush runs synchronously as soon as the first
// watcher is queued.
func SetDeferral(fn Deferral) {
	sched.mu.Lock()
	sched.deferral = fn
	sched.mu.Unlock()
}

// batchedMode reports whether flushes are deferred. In immediate mode
// Dep.Notify sorts its snapshot itself, since no scheduler sort will
// happen.
func batchedMode() bool {
	sched.mu.Lock()
	defer sched.mu.Unlock()
	return sched.deferral != nil
}

// QueuePostFlushActivated registers a hook to run after the current flush
// fully drains. Hooks run in FIFO order.
func QueuePostFlushActivated(fn func()) {
	sched.mu.Lock()
	sched.activatedQueue = append(sched.activatedQueue, fn)
	sched.mu.Unlock()
}

// QueuePostFlushUpdated registers a hook to run after the current flush
// fully drains. Hooks run in LIFO order.
func QueuePostFlushUpdated(fn func()) {
	sched.mu.Lock()
	sched.updatedQueue = append(sched.updatedQueue, fn)
	sched.mu.Unlock()
}

// queueWatcher enqueues a watcher for the next flush. Repeated triggers of
// the same id before the flush are deduplicated. During a flush, ids not
// yet processed splice into the unprocessed remainder by id; ids already
// processed re-append and re-run, counted against maxUpdateCount.
func queueWatcher(w *Watcher) {
	sched.mu.Lock()

	if sched.has[w.id] {
		sched.mu.Unlock()
		return
	}
	if sched.circular[w.id] > maxUpdateCount {
		// Runaway id, skipped for the remainder of this flush.
		sched.mu.Unlock()
		return
	}

	sched.has[w.id] = true
	if !sched.flushing {
		sched.queue = append(sched.queue, w)
	} else {
		// Splice by id into the portion not yet processed; never
		// insert before the current processing index.
		i := len(sched.queue) - 1
		for i > sched.index && sched.queue[i].id > w.id {
			i--
		}
		sched.queue = append(sched.queue, nil)
		copy(sched.queue[i+2:], sched.queue[i+1:])
		sched.queue[i+1] = w
	}

	if !sched.waiting {
		sched.waiting = true
		deferral := sched.deferral
		sched.mu.Unlock()
		if deferral != nil {
			deferral(flushSchedulerQueue)
		} else {
			flushSchedulerQueue()
		}
		return
	}
	sched.mu.Unlock()
}

// flushSchedulerQueue runs every queued watcher in ascending id order.
// Ids are assigned at creation and creation nests outside-in, so this
// guarantees parent-before-child ordering and plain watch callbacks before
// render re-computation.
func flushSchedulerQueue() {
	start := time.Now()
	runs := 0

	// A propagating watcher panic aborts the flush; reset so the
	// scheduler stays usable for whoever recovers.
	defer func() {
		if r := recover(); r != nil {
			sched.mu.Lock()
			resetSchedulerStateLocked()
			sched.mu.Unlock()
			panic(r)
		}
	}()

	sched.mu.Lock()
	sched.flushing = true
	sort.Slice(sched.queue, func(i, j int) bool {
		return sched.queue[i].id < sched.queue[j].id
	})
	queued := len(sched.queue)
	sched.mu.Unlock()
	notifyFlushStart(queued)
	sched.mu.Lock()

	// The queue length is re-read every iteration: watchers queued
	// during the flush splice into the remainder.
	for sched.index = 0; sched.index < len(sched.queue); sched.index++ {
		w := sched.queue[sched.index]
		id := w.id
		delete(sched.has, id)
		sched.mu.Unlock()

		if w.before != nil {
			w.before()
		}
		w.run()
		runs++
		notifyWatcherRan(id)

		sched.mu.Lock()
		if sched.has[id] {
			sched.circular[id]++
			if sched.circular[id] > maxUpdateCount {
				abortRunawayLocked(id)
			}
		}
	}

	activated := sched.activatedQueue
	updated := sched.updatedQueue
	resetSchedulerStateLocked()
	sched.mu.Unlock()

	notifyFlushEnd(time.Since(start), runs)

	for _, fn := range activated {
		fn()
	}
	for i := len(updated) - 1; i >= 0; i-- {
		updated[i]()
	}
}

// abortRunawayLocked reports a runaway update for id and removes its
// pending occurrences from the unprocessed remainder, so the rest of the
// flush continues for other watchers. Caller holds sched.mu.
func abortRunawayLocked(id uint64) {
	delete(sched.has, id)
	for i := len(sched.queue) - 1; i > sched.index; i-- {
		if sched.queue[i].id == id {
			sched.queue = append(sched.queue[:i], sched.queue[i+1:]...)
		}
	}

	sched.mu.Unlock()
	reportError(fmt.Errorf("%w: watcher %d retriggered more than %d times in one flush",
		ErrRunawayUpdate, id, maxUpdateCount), "flush")
	notifyRunaway(id)
	sched.mu.Lock()
}

// resetSchedulerStateLocked clears the queue, dedup set, repeat counters
// and flags. Caller holds sched.mu.
func resetSchedulerStateLocked() {
	sched.queue = nil
	sched.index = 0
	clear(sched.has)
	clear(sched.circular)
	sched.waiting = false
	sched.flushing = false
	sched.activatedQueue = nil
	sched.updatedQueue = nil
}
