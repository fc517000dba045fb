package reactive

import (
	"sort"
	"sync"
)

// Dep is an observable slot: one exists per reactive property and one per
// container (for container-level "something inside changed" notifications).
// It tracks which watchers read it and can notify them.
type Dep struct {
	id uint64

	// subs are the watchers subscribed to this dep.
	subs []*Watcher

	// mu protects subs.
	mu sync.Mutex
}

// NewDep creates a dependency slot with a fresh monotonic id.
func NewDep() *Dep {
	return &Dep{id: nextID()}
}

// ID returns the unique identifier for this dep.
func (d *Dep) ID() uint64 {
	return d.id
}

// AddSub subscribes a watcher. Duplicate subscriptions (by watcher id) are
// a no-op, so a dep never notifies the same watcher twice per change.
func (d *Dep) AddSub(w *Watcher) {
	if w == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.subs {
		if existing.id == w.id {
			return
		}
	}
	d.subs = append(d.subs, w)
}

// RemoveSub unsubscribes a watcher by identity. No-op if absent.
func (d *Dep) RemoveSub(w *Watcher) {
	if w == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.subs {
		if existing.id == w.id {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Depend registers this dep with the watcher currently collecting
// dependencies, which performs the reciprocal AddSub. No-op when no watcher
// is active, so plain reads outside evaluation stay free.
func (d *Dep) Depend() {
	if w := currentWatcher(); w != nil {
		w.addDep(d)
	}
}

// Notify fires Update on every subscribed watcher.
//
// It operates on a snapshot of the subscriber list: running a watcher may
// synchronously mutate subs (teardown, new subscriptions) and the
// notification pass must neither skip nor double-fire entries. Outside
// batched mode the snapshot is sorted by watcher id so ordering stays
// deterministic even without the scheduler.
func (d *Dep) Notify() {
	d.mu.Lock()
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	d.mu.Unlock()

	if !batchedMode() {
		sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	}

	for _, w := range subs {
		w.Update()
	}
}

// subCount returns the number of current subscribers. Used by tests.
func (d *Dep) subCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs)
}
