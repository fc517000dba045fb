package reactive

import "sort"

// List is the array-like reactive sequence. Only the seven instrumented
// length-mutating operations (Push, Pop, Shift, Unshift, Splice, Sort,
// Reverse) trigger reactivity; they wrap newly introduced elements and
// notify the container-level dep. Direct writes through the slice returned
// by Values are not observed — callers needing reactive index assignment
// go through SetAt or SetProperty.
type List struct {
	ob    *Observer
	items []any
}

// NewList wraps a sequence. The slice is copied; every element is wrapped
// recursively.
func NewList(items []any) *List {
	l := &List{
		ob:    newObserver(),
		items: make([]any, len(items)),
	}
	for i, v := range items {
		l.items[i] = Wrap(v)
	}
	return l
}

func (l *List) observerRef() *Observer { return l.ob }

// Len returns the element count, registering the container-level dep.
func (l *List) Len() int {
	if currentWatcher() != nil {
		l.ob.dep.Depend()
	}
	return len(l.items)
}

// Get reads the element at i, registering the container-level dep and, for
// container elements, the element's own dep. Out-of-range reads yield nil.
func (l *List) Get(i int) any {
	if currentWatcher() != nil {
		l.ob.dep.Depend()
	}
	if i < 0 || i >= len(l.items) {
		return nil
	}

	v := l.items[i]
	if currentWatcher() != nil {
		if childOb := Observe(v); childOb != nil {
			childOb.dep.Depend()
			if nested, ok := v.(*List); ok {
				dependList(nested)
			}
		}
	}
	return v
}

// Values returns the underlying slice, registering the container-level
// dep. Mutating it directly bypasses instrumentation: no wrap, no notify.
func (l *List) Values() []any {
	if currentWatcher() != nil {
		l.ob.dep.Depend()
	}
	return l.items
}

// Push appends elements, wrapping them, and notifies.
func (l *List) Push(items ...any) {
	for _, v := range items {
		l.items = append(l.items, Wrap(v))
	}
	l.ob.dep.Notify()
}

// Pop removes and returns the last element (nil if empty) and notifies.
func (l *List) Pop() any {
	if len(l.items) == 0 {
		l.ob.dep.Notify()
		return nil
	}
	v := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	l.ob.dep.Notify()
	return v
}

// Shift removes and returns the first element (nil if empty) and notifies.
func (l *List) Shift() any {
	if len(l.items) == 0 {
		l.ob.dep.Notify()
		return nil
	}
	v := l.items[0]
	l.items = append(l.items[:0], l.items[1:]...)
	l.ob.dep.Notify()
	return v
}

// Unshift inserts elements at the front, wrapping them, and notifies.
func (l *List) Unshift(items ...any) {
	wrapped := make([]any, 0, len(items)+len(l.items))
	for _, v := range items {
		wrapped = append(wrapped, Wrap(v))
	}
	l.items = append(wrapped, l.items...)
	l.ob.dep.Notify()
}

// Splice removes deleteCount elements starting at start, inserts items in
// their place (wrapped), notifies, and returns the removed elements.
// Start and deleteCount are clamped to the valid range.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	if start < 0 {
		start = 0
	}
	if start > len(l.items) {
		start = len(l.items)
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > len(l.items)-start {
		deleteCount = len(l.items) - start
	}

	removed := make([]any, deleteCount)
	copy(removed, l.items[start:start+deleteCount])

	wrapped := make([]any, len(items))
	for i, v := range items {
		wrapped[i] = Wrap(v)
	}

	tail := make([]any, len(l.items)-start-deleteCount)
	copy(tail, l.items[start+deleteCount:])
	l.items = append(l.items[:start], wrapped...)
	l.items = append(l.items, tail...)

	l.ob.dep.Notify()
	return removed
}

// Sort orders the elements in place with the given comparison and
// notifies.
func (l *List) Sort(less func(a, b any) bool) {
	sort.SliceStable(l.items, func(i, j int) bool {
		return less(l.items[i], l.items[j])
	})
	l.ob.dep.Notify()
}

// Reverse reverses the elements in place and notifies.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.ob.dep.Notify()
}

// SetAt assigns index i through the instrumented replace-range path,
// growing the sequence (padding with nils) when i is past the end. This is
// the reactive counterpart of plain indexed assignment.
func (l *List) SetAt(i int, value any) {
	if i < 0 {
		return
	}
	for len(l.items) < i {
		l.items = append(l.items, nil)
	}
	l.Splice(i, 1, value)
}

// RemoveAt removes the element at i through the instrumented remove path.
// Out-of-range indices are a no-op.
func (l *List) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.Splice(i, 1)
}

// dependList registers the container dep of every element (recursively for
// nested lists) with the active watcher. Sequences cannot intercept index
// reads, so reads fan out eagerly instead.
func dependList(l *List) {
	for _, v := range l.items {
		if ob := Observe(v); ob != nil {
			ob.dep.Depend()
		}
		if nested, ok := v.(*List); ok {
			dependList(nested)
		}
	}
}
