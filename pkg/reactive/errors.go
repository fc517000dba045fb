package reactive

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrRunawayUpdate is reported when a single watcher keeps retriggering
// itself past the repeat threshold within one flush. The watcher is skipped
// for the remainder of that flush; other queued watchers still run.
//
// This almost always means a watcher callback writes to a value its own
// getter reads.
var ErrRunawayUpdate = errors.New("reactive: runaway update loop")

// ErrNotContainer is reported when SetProperty or DeleteProperty is called
// on a value that is not a reactive container (or a plain map/slice). The
// operation is a no-op; no panic is raised.
var ErrNotContainer = errors.New("reactive: mutation target is not a container")

// ErrRootAdd is reported when SetProperty would add a new key to an object
// that is bound as root data. Root objects must declare their keys upfront;
// dynamic additions on them are refused.
var ErrRootAdd = errors.New("reactive: cannot add properties to a root-bound object")

// ErrInvalidKey is reported when a key has the wrong type for its target
// (a non-string key on an Object, a non-integer key on a List).
var ErrInvalidKey = errors.New("reactive: invalid property key")

// ErrorHandler receives errors recovered from user-flagged watchers and
// usage warnings from the mutation helpers. The context string names the
// operation that failed, e.g. "watcher getter" or "SetProperty".
type ErrorHandler func(err error, context string)

var (
	errorHandlerMu sync.RWMutex
	errorHandler   ErrorHandler
)

// SetErrorHandler installs the error sink. Pass nil to restore the default,
// which logs through slog.
func SetErrorHandler(h ErrorHandler) {
	errorHandlerMu.Lock()
	errorHandler = h
	errorHandlerMu.Unlock()
}

// reportError routes an error to the installed sink.
func reportError(err error, context string) {
	errorHandlerMu.RLock()
	h := errorHandler
	errorHandlerMu.RUnlock()

	if h != nil {
		h(err, context)
		return
	}
	slog.Error("reactive error", "context", context, "err", err)
}

// reportRecovered converts a recovered panic value into an error and routes
// it to the sink. Used on the user-flagged watcher paths.
func reportRecovered(r any, context string) {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("reactive: panic: %v", r)
	}
	reportError(err, context)
}
