package reactive

// traverse recursively touches every nested value so that deep watchers
// register dependencies at every depth, not just the top level. Reads go
// through the normal container read paths, which is what performs the
// registration. A visited set keyed by container dep id guards against
// reference cycles.
func traverse(value any) {
	traverseValue(value, make(map[uint64]struct{}))
}

func traverseValue(value any, seen map[uint64]struct{}) {
	switch v := value.(type) {
	case *Object:
		if _, ok := seen[v.ob.dep.id]; ok {
			return
		}
		seen[v.ob.dep.id] = struct{}{}
		for _, k := range v.Keys() {
			traverseValue(v.Get(k), seen)
		}
	case *List:
		if _, ok := seen[v.ob.dep.id]; ok {
			return
		}
		seen[v.ob.dep.id] = struct{}{}
		for i := 0; i < v.Len(); i++ {
			traverseValue(v.Get(i), seen)
		}
	}
}
