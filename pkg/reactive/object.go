package reactive

import (
	"fmt"
	"sort"
	"sync"
)

// Object is the record-like reactive container. Every key owns a private
// dep; reads register it with the active watcher and writes notify it.
// Values that are themselves raw containers are wrapped eagerly, so
// reactivity extends through nesting and terminates at primitives.
type Object struct {
	ob *Observer

	// mu protects props. Key lookups and structural changes take it;
	// dep traffic happens outside it.
	mu    sync.RWMutex
	props map[string]*property
}

// property is the intercepted accessor pair for one key.
type property struct {
	dep *Dep

	// value is the stored (already wrapped) value; unused when a
	// captured getter is present.
	value any

	// get/set are a captured pre-existing accessor pair. A getter with
	// no matching setter leaves the key unobserved on writes: Set
	// becomes a silent no-op for it. Documented limitation, preserved.
	get func() any
	set func(any)
}

// NewObject wraps a record. The fields map is copied; every value is
// wrapped recursively.
func NewObject(fields map[string]any) *Object {
	o := &Object{
		ob:    newObserver(),
		props: make(map[string]*property, len(fields)),
	}
	for k, v := range fields {
		o.props[k] = &property{dep: NewDep(), value: Wrap(v)}
	}
	return o
}

func (o *Object) observerRef() *Observer { return o.ob }

// Define installs a reactive property for key, replacing any existing one.
// The value is wrapped eagerly. Unlike Set, Define never notifies: it is
// the declaration primitive.
func (o *Object) Define(key string, value any) {
	o.mu.Lock()
	o.props[key] = &property{dep: NewDep(), value: Wrap(value)}
	o.mu.Unlock()
}

// DefineAccessor installs a property backed by a captured accessor pair.
// Reads go through get and still register the key's dep. If set is nil the
// key is write-unobserved: Set calls on it are dropped without storing or
// notifying, and the cached fallback may diverge from the true external
// value.
func (o *Object) DefineAccessor(key string, get func() any, set func(any)) {
	o.mu.Lock()
	o.props[key] = &property{dep: NewDep(), get: get, set: set}
	o.mu.Unlock()
}

// Get reads key, registering the key's dep with the active watcher. If the
// value is itself a container its container-level dep registers too, so
// replacing the contents of a nested container stays observable even
// though the outer reference did not change. List values fan out over
// their elements' container deps.
func (o *Object) Get(key string) any {
	o.mu.RLock()
	p := o.props[key]
	o.mu.RUnlock()

	if p == nil {
		if currentWatcher() != nil {
			// Missing keys can only appear via dynamic add, which
			// notifies at the container level.
			o.ob.dep.Depend()
		}
		return nil
	}

	value := p.value
	if p.get != nil {
		value = p.get()
	}

	if currentWatcher() != nil {
		p.dep.Depend()
		if childOb := Observe(value); childOb != nil {
			childOb.dep.Depend()
			if l, ok := value.(*List); ok {
				dependList(l)
			}
		}
	}
	return value
}

// Set writes key. Existing keys route through the intercepted pair: equal
// values (including the NaN-over-NaN case) short-circuit without
// notifying, new container values are wrapped, and the key's dep fires.
// A new key installs a fresh reactive property and notifies the
// container-level dep instead, since no per-key dep existed before.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	p := o.props[key]
	o.mu.Unlock()

	if p == nil {
		if o.ob.RootCount() > 0 {
			reportError(fmt.Errorf("%w: key %q", ErrRootAdd, key), "SetProperty")
			return
		}
		o.Define(key, value)
		o.ob.dep.Notify()
		return
	}

	old := p.value
	if p.get != nil {
		old = p.get()
		if p.set == nil {
			// Write-unobserved accessor key.
			return
		}
	}
	if sameValue(value, old) {
		return
	}

	if p.set != nil {
		p.set(Wrap(value))
	} else {
		p.value = Wrap(value)
	}
	p.dep.Notify()
}

// Delete removes key. If the object possessed the key, the container-level
// dep is notified. Like dynamic adds, deletes are refused on root-bound
// objects.
func (o *Object) Delete(key string) {
	if o.ob.RootCount() > 0 {
		reportError(fmt.Errorf("%w: key %q", ErrRootAdd, key), "DeleteProperty")
		return
	}

	o.mu.Lock()
	_, ok := o.props[key]
	if ok {
		delete(o.props, key)
	}
	o.mu.Unlock()

	if ok {
		o.ob.dep.Notify()
	}
}

// Has reports whether key exists, registering the container-level dep so
// membership checks re-run after dynamic adds and deletes.
func (o *Object) Has(key string) bool {
	if currentWatcher() != nil {
		o.ob.dep.Depend()
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.props[key]
	return ok
}

// Keys returns the key set in sorted order, registering the
// container-level dep.
func (o *Object) Keys() []string {
	if currentWatcher() != nil {
		o.ob.dep.Depend()
	}

	o.mu.RLock()
	keys := make([]string, 0, len(o.props))
	for k := range o.props {
		keys = append(keys, k)
	}
	o.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Len returns the number of keys, registering the container-level dep.
func (o *Object) Len() int {
	if currentWatcher() != nil {
		o.ob.dep.Depend()
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.props)
}
