package reactive

// Watcher is a registered computation: a getter that reads reactive values
// plus an optional callback fired when the getter's result changes.
//
// During evaluation the watcher records exactly which deps the getter read;
// deps from the previous run that were not touched again are unsubscribed,
// so the subscription set always matches the most recent completed
// evaluation.
type Watcher struct {
	id uint64

	// getter is the tracked computation.
	getter func() any

	// cb receives (newValue, oldValue) when the result changes.
	cb func(newVal, oldVal any)

	// before runs just before the watcher is re-run inside a flush.
	before func()

	deep bool
	user bool
	lazy bool
	sync bool

	active bool

	// dirty is the lazy watcher's invalidation flag: set on Update,
	// cleared by EvaluateNow.
	dirty bool

	// value is the result of the last completed evaluation.
	value any

	// deps holds the dependencies of the last completed evaluation;
	// newDeps double-buffers the set being collected by the current one.
	deps      []*Dep
	depIDs    map[uint64]struct{}
	newDeps   []*Dep
	newDepIDs map[uint64]struct{}
}

// WatcherOption configures a Watcher at creation.
type WatcherOption interface {
	isWatcherOption()
	applyWatcher(w *Watcher)
}

type watcherOptionFunc func(*Watcher)

func (f watcherOptionFunc) isWatcherOption()         {}
func (f watcherOptionFunc) applyWatcher(w *Watcher) { f(w) }

// Deep forces dependency registration through every nested level of the
// getter's result, not just its top level. The callback also fires on every
// re-run, since nested mutations do not change the result's identity.
func Deep() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.deep = true })
}

// Sync makes the watcher re-run immediately on notification instead of
// going through the batched scheduler.
func Sync() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.sync = true })
}

// Lazy defers evaluation entirely: the getter is not invoked at creation,
// and notifications only mark the watcher dirty. The value is recomputed on
// demand via EvaluateNow. Used for computed values.
func Lazy() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.lazy = true })
}

// User marks the watcher as user-supplied: panics in its getter or callback
// are recovered and routed to the error sink instead of propagating, and
// the engine treats that cycle's value as nil.
func User() WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.user = true })
}

// Before registers a hook invoked right before the watcher re-runs during a
// flush.
func Before(fn func()) WatcherOption {
	return watcherOptionFunc(func(w *Watcher) { w.before = fn })
}

// NewWatcher registers a computation. Unless Lazy is set, the getter runs
// once immediately so the initial dependency set is collected.
func NewWatcher(getter func() any, cb func(newVal, oldVal any), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		id:        nextID(),
		getter:    getter,
		cb:        cb,
		active:    true,
		depIDs:    make(map[uint64]struct{}),
		newDepIDs: make(map[uint64]struct{}),
	}

	for _, opt := range opts {
		opt.applyWatcher(w)
	}

	w.dirty = w.lazy
	if !w.lazy {
		w.value = w.get()
	}
	return w
}

// ID returns the watcher's creation-ordered id. Lower ids run first within
// a flush.
func (w *Watcher) ID() uint64 {
	return w.id
}

// Value returns the result of the last completed evaluation.
func (w *Watcher) Value() any {
	return w.value
}

// Dirty reports whether a lazy watcher needs recomputation.
func (w *Watcher) Dirty() bool {
	return w.dirty
}

// Active reports whether the watcher is still registered.
func (w *Watcher) Active() bool {
	return w.active
}

// get is the evaluation cycle: push self as the collection target, run the
// getter, deep-traverse the result if requested, then pop and reconcile the
// dependency double buffer. The pop is deferred so panicking getters cannot
// leave the active-watcher stack unbalanced.
func (w *Watcher) get() (value any) {
	pushTarget(w)
	defer func() {
		popTarget()
		w.cleanupDeps()
	}()
	defer func() {
		// Runs before the pop above, while w is still the target, so
		// deep traversal registers nested deps on this watcher.
		if w.deep {
			traverse(value)
		}
	}()

	if w.user {
		func() {
			defer func() {
				if r := recover(); r != nil {
					reportRecovered(r, "watcher getter")
					value = nil
				}
			}()
			value = w.getter()
		}()
		return value
	}

	return w.getter()
}

// addDep records a dep read during the current evaluation. The reciprocal
// AddSub only happens for deps that were not already subscribed in the
// previous run, keeping re-subscription idempotent across runs.
func (w *Watcher) addDep(d *Dep) {
	if _, ok := w.newDepIDs[d.id]; ok {
		return
	}
	w.newDepIDs[d.id] = struct{}{}
	w.newDeps = append(w.newDeps, d)
	if _, ok := w.depIDs[d.id]; !ok {
		d.AddSub(w)
	}
}

// cleanupDeps drops subscriptions to deps the latest evaluation no longer
// read, then swaps the double buffer.
func (w *Watcher) cleanupDeps() {
	for _, d := range w.deps {
		if _, ok := w.newDepIDs[d.id]; !ok {
			d.RemoveSub(w)
		}
	}

	w.deps, w.newDeps = w.newDeps, w.deps[:0]
	w.depIDs, w.newDepIDs = w.newDepIDs, w.depIDs
	clear(w.newDepIDs)
}

// Update is the notification entry point, dispatched by flag: lazy watchers
// just go dirty, sync watchers re-run inline, everything else is handed to
// the batched scheduler.
func (w *Watcher) Update() {
	switch {
	case w.lazy:
		w.dirty = true
	case w.sync:
		w.run()
	default:
		queueWatcher(w)
	}
}

// run re-evaluates and fires the callback when the result changed. The
// callback also fires when the result is a container (containers mutate
// internally without changing identity) or the watcher is deep.
func (w *Watcher) run() {
	if !w.active {
		return
	}

	value := w.get()
	if identical(value, w.value) && !isContainer(value) && !w.deep {
		return
	}

	oldValue := w.value
	w.value = value
	if w.cb == nil {
		return
	}

	if w.user {
		defer func() {
			if r := recover(); r != nil {
				reportRecovered(r, "watcher callback")
			}
		}()
	}
	w.cb(value, oldValue)
}

// EvaluateNow forces evaluation of a lazy watcher, caches the result and
// clears the dirty flag. On-demand computed values call this when read
// while dirty.
func (w *Watcher) EvaluateNow() any {
	w.value = w.get()
	w.dirty = false
	return w.value
}

// Depend re-registers every dep of this watcher with the currently active
// one. A computed value read during another watcher's evaluation calls this
// so invalidation is not lost through the layer of indirection.
func (w *Watcher) Depend() {
	for _, d := range w.deps {
		d.Depend()
	}
}

// Teardown removes the watcher from every dep it subscribed to and marks it
// inactive. Idempotent. A torn-down watcher still sitting in the scheduler
// queue becomes a no-op at its turn, so teardown acts as cooperative
// cancellation.
func (w *Watcher) Teardown() {
	if !w.active {
		return
	}
	for _, d := range w.deps {
		d.RemoveSub(w)
	}
	w.active = false
}
