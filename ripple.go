// Package ripple provides the public API for the Ripple reactivity engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/ripple-go/ripple"
//
// Usage:
//
//	state := ripple.NewObject(map[string]any{"count": 0})
//	w := ripple.NewWatcher(func() any {
//	    return state.Get("count")
//	}, func(newVal, oldVal any) {
//	    fmt.Println("count:", newVal)
//	})
//	state.Set("count", 1)
//	defer w.Teardown()
package ripple

import (
	"github.com/ripple-go/ripple/pkg/reactive"
)

// =============================================================================
// Containers (re-export from pkg/reactive)
// =============================================================================

// Object is a reactive key/value container. Reads through Get register
// the active watcher; writes through Set notify subscribers.
type Object = reactive.Object

// List is a reactive ordered container. Its mutator methods notify the
// container-level dependency.
type List = reactive.List

// Observer carries the per-container bookkeeping shared by Object and
// List.
type Observer = reactive.Observer

// Container is implemented by every reactive container type.
type Container = reactive.Container

// NonReactive marks values that Wrap must leave untouched.
type NonReactive = reactive.NonReactive

// NewObject builds a reactive object from a plain map. Nested maps and
// slices are converted recursively.
var NewObject = reactive.NewObject

// NewList builds a reactive list from a plain slice. Nested maps and
// slices are converted recursively.
var NewList = reactive.NewList

// Observe returns the Observer attached to a reactive container, or nil
// for any other value.
var Observe = reactive.Observe

// Wrap converts plain maps and slices into reactive containers. Values
// that are already containers, or that cannot hold tracked state, pass
// through unchanged.
var Wrap = reactive.Wrap

// ToggleObserving enables or disables container creation process-wide.
// While disabled, Wrap returns its input unchanged.
var ToggleObserving = reactive.ToggleObserving

// SetProperty assigns a key or index on a reactive container so that
// the write is tracked, including keys the container has never seen.
var SetProperty = reactive.SetProperty

// DeleteProperty removes a key or index from a reactive container so
// that the removal is tracked.
var DeleteProperty = reactive.DeleteProperty

// =============================================================================
// Watchers
// =============================================================================

// Watcher evaluates a getter, records every dependency the evaluation
// touches, and re-runs when any of them changes.
type Watcher = reactive.Watcher

// WatcherOption configures NewWatcher.
type WatcherOption = reactive.WatcherOption

// NewWatcher creates a watcher and, unless Lazy is given, evaluates it
// immediately to collect its initial dependencies.
var NewWatcher = reactive.NewWatcher

// Deep makes the watcher traverse its value so that nested container
// mutations also trigger it.
var Deep = reactive.Deep

// Sync makes the watcher re-run inline on notification instead of
// going through the scheduler.
var Sync = reactive.Sync

// Lazy defers the first evaluation until EvaluateNow and marks the
// watcher dirty instead of re-running on change.
var Lazy = reactive.Lazy

// User marks the getter and callback as user-supplied: panics in them
// are recovered and routed to the error handler.
var User = reactive.User

// Before registers a hook invoked just before the watcher re-runs
// during a flush.
var Before = reactive.Before

// Untracked runs fn with dependency collection suspended.
var Untracked = reactive.Untracked

// CleanupGoroutine releases the per-goroutine tracking state. Call it
// before a watcher-evaluating goroutine exits.
var CleanupGoroutine = reactive.CleanupGoroutine

// =============================================================================
// Scheduler
// =============================================================================

// Deferral schedules a flush callback onto the host's event loop. A nil
// deferral flushes synchronously on the first queued watcher.
type Deferral = reactive.Deferral

// SetDeferral installs the flush scheduling hook.
var SetDeferral = reactive.SetDeferral

// QueuePostFlushActivated enqueues a callback to run after the next
// flush, in submission order.
var QueuePostFlushActivated = reactive.QueuePostFlushActivated

// QueuePostFlushUpdated enqueues a callback to run after the next
// flush, in reverse submission order.
var QueuePostFlushUpdated = reactive.QueuePostFlushUpdated

// =============================================================================
// Errors and instrumentation
// =============================================================================

// ErrorHandler receives recovered panics and reported conditions.
type ErrorHandler = reactive.ErrorHandler

// SetErrorHandler installs the process-wide error sink.
var SetErrorHandler = reactive.SetErrorHandler

// ErrRunawayUpdate is reported when a watcher keeps retriggering itself
// within a single flush.
var ErrRunawayUpdate = reactive.ErrRunawayUpdate

// ErrNotContainer is reported when SetProperty or DeleteProperty is
// given a target that cannot hold tracked state.
var ErrNotContainer = reactive.ErrNotContainer

// ErrRootAdd is reported when a new key is added to a container bound
// as a state root.
var ErrRootAdd = reactive.ErrRootAdd

// FlushObserver receives scheduler flush lifecycle events.
type FlushObserver = reactive.FlushObserver

// RegisterFlushObserver subscribes an observer to flush events and
// returns a function that removes it.
var RegisterFlushObserver = reactive.RegisterFlushObserver
