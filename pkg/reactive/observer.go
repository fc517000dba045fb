package reactive

import (
	"fmt"
	"sync/atomic"
)

// Container is implemented by the reactive container types (Object, List).
type Container interface {
	observerRef() *Observer
}

// NonReactive marks a type as excluded from observation: Wrap leaves such
// values untouched and Observe returns nil for them.
type NonReactive interface {
	NonReactive()
}

// Observer is the per-container wrapper state. Its dep is the
// container-level dependency, notified on structural changes (dynamic
// add/remove, sequence mutation) and depended on by deep watchers.
type Observer struct {
	dep *Dep

	// rootCount is the number of root bindings using this container as
	// their root data object. Dynamic key additions are refused on
	// root-bound objects.
	rootCount atomic.Int32
}

func newObserver() *Observer {
	return &Observer{dep: NewDep()}
}

// Dep returns the container-level dependency.
func (ob *Observer) Dep() *Dep {
	return ob.dep
}

// BindRoot records that a root binding uses this container as root data.
func (ob *Observer) BindRoot() {
	ob.rootCount.Add(1)
}

// UnbindRoot releases a root binding.
func (ob *Observer) UnbindRoot() {
	ob.rootCount.Add(-1)
}

// RootCount returns the number of active root bindings.
func (ob *Observer) RootCount() int {
	return int(ob.rootCount.Load())
}

// observing is the global observation toggle. While false, values assigned
// into containers are stored raw instead of being wrapped.
var observing atomic.Bool

func init() {
	observing.Store(true)
}

// ToggleObserving enables or disables implicit wrapping globally.
func ToggleObserving(enabled bool) {
	observing.Store(enabled)
}

// Observe returns the wrapper for an already-reactive container, or nil for
// anything else. Idempotent: calling it any number of times on the same
// container yields the same *Observer.
func Observe(value any) *Observer {
	if c, ok := value.(Container); ok {
		return c.observerRef()
	}
	return nil
}

// Wrap converts a raw container into its reactive form: map[string]any
// becomes *Object, []any becomes *List, each recursively. Values that are
// already containers, carry the NonReactive marker, or are not containers
// at all come back unchanged. While observation is globally disabled, raw
// containers also come back unchanged.
func Wrap(value any) any {
	if !observing.Load() {
		return value
	}
	switch v := value.(type) {
	case Container:
		return value
	case NonReactive:
		return value
	case map[string]any:
		return NewObject(v)
	case []any:
		return NewList(v)
	default:
		return value
	}
}

// isContainer reports whether a value is container-typed: such values can
// mutate internally without changing identity, so watchers on them always
// fire their callback.
func isContainer(v any) bool {
	switch v.(type) {
	case Container, map[string]any, []any:
		return true
	}
	return false
}

// SetProperty sets key on target with full reactivity: existing keys route
// through the normal write path, a valid index on a List grows the sequence
// and replaces through the instrumented range operation, and a new key on
// an Object installs a fresh reactive property and notifies the
// container-level dep. Plain (unwrapped) maps and slices fall back to plain
// assignment with no reactivity. Anything else is reported as a usage
// warning and the call is a no-op.
func SetProperty(target any, key any, value any) {
	switch t := target.(type) {
	case *Object:
		k, ok := key.(string)
		if !ok {
			reportError(fmt.Errorf("%w: Object key must be a string, got %T", ErrInvalidKey, key), "SetProperty")
			return
		}
		t.Set(k, value)
	case *List:
		i, ok := toIndex(key)
		if !ok || i < 0 {
			reportError(fmt.Errorf("%w: List key must be a non-negative integer, got %v", ErrInvalidKey, key), "SetProperty")
			return
		}
		t.SetAt(i, value)
	case map[string]any:
		if k, ok := key.(string); ok {
			t[k] = value
			return
		}
		reportError(fmt.Errorf("%w: map key must be a string, got %T", ErrInvalidKey, key), "SetProperty")
	case []any:
		if i, ok := toIndex(key); ok && i >= 0 && i < len(t) {
			t[i] = value
			return
		}
		reportError(fmt.Errorf("%w: slice index out of range: %v", ErrInvalidKey, key), "SetProperty")
	default:
		reportError(fmt.Errorf("%w: %T", ErrNotContainer, target), "SetProperty")
	}
}

// DeleteProperty removes key from target: a List index goes through the
// instrumented remove operation, an Object key is removed and the
// container-level dep notified. Plain maps get a plain delete. Invalid
// targets are reported and ignored.
func DeleteProperty(target any, key any) {
	switch t := target.(type) {
	case *Object:
		k, ok := key.(string)
		if !ok {
			reportError(fmt.Errorf("%w: Object key must be a string, got %T", ErrInvalidKey, key), "DeleteProperty")
			return
		}
		t.Delete(k)
	case *List:
		i, ok := toIndex(key)
		if !ok || i < 0 {
			reportError(fmt.Errorf("%w: List key must be a non-negative integer, got %v", ErrInvalidKey, key), "DeleteProperty")
			return
		}
		t.RemoveAt(i)
	case map[string]any:
		if k, ok := key.(string); ok {
			delete(t, k)
			return
		}
		reportError(fmt.Errorf("%w: map key must be a string, got %T", ErrInvalidKey, key), "DeleteProperty")
	default:
		reportError(fmt.Errorf("%w: %T", ErrNotContainer, target), "DeleteProperty")
	}
}

func toIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int64:
		return int(k), true
	case uint:
		return int(k), true
	}
	return 0, false
}
