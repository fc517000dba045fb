// Package reactive provides the fine-grained dependency-tracking core for
// the Ripple engine.
//
// The system is built from four parts, composed bottom-up:
//
// Dep is an observable slot. It holds an ordered set of watchers and can
// notify them when the value it guards changes.
//
// Watcher is a registered computation: a getter plus an optional callback.
// While the getter runs, every Dep it touches registers itself with the
// watcher, so the watcher's dependency set always mirrors its most recent
// evaluation. Stale subscriptions are dropped after every run.
//
// Object and List are reactive containers. Reads route through per-key (or
// container-level) Deps; writes compare against the current value and
// notify only on a real change.
//
//	data := reactive.NewObject(map[string]any{"a": 1})
//	w := reactive.NewWatcher(
//	    func() any { return data.Get("a").(int) + 1 },
//	    func(newVal, oldVal any) { fmt.Println(newVal, oldVal) },
//	)
//	data.Set("a", 5) // callback fires with (6, 2) after the flush
//	_ = w
//
// The scheduler batches watcher re-runs triggered within one logical tick
// into a single flush, deduplicates repeated triggers, runs watchers in
// ascending creation order, and guards against runaway update loops. The
// deferral primitive is injected via SetDeferral; without one the engine
// flushes synchronously.
//
// # Threading model
//
// The engine has single-threaded, cooperative semantics: mutations, reads
// and flushes are expected to happen on one goroutine at a time. The
// active-watcher stack is goroutine-local, so concurrent goroutines each
// get their own tracking context, but a single container or watcher must
// not be driven from two goroutines at once.
package reactive
