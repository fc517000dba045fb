package reactive

import "sync/atomic"

// globalIDCounter is the source of unique ids for deps and watchers.
// Atomic operations keep id generation lock-free.
var globalIDCounter uint64

// nextID returns the next unique id. Ids are monotonically increasing and
// never reused; watcher ids double as the scheduling order.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}
