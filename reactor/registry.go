package reactor

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// registry is the process-wide goroutine-id -> *Reactor map backing
// CurrentReactor (spec.md 4.4.4's "process-wide mapping from OS-thread
// identifier to reactor"). Go has no portable OS-thread-id primitive for
// user code, so this is keyed by goroutine id instead - the loop goroutine
// is pinned to its Reactor for its entire lifetime, which is the property
// the pool actually depends on (affinity for chained submissions).
//
// Grounded on the teacher's getGoroutineID() trick in loop.go (parsing the
// id out of runtime.Stack), reused here verbatim in spirit; the teacher's
// weak-pointer/ring-buffer promise registry (registry.go) is not adapted -
// there is no promise-scavenging concern in this domain, only a flat
// lookup table, so a sync.Map is the right-sized replacement.
var registry sync.Map // goroutineID -> *Reactor

func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	// Stack traces begin with "goroutine 123 [running]:".
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return -1
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

func registerCurrent(r *Reactor) {
	registry.Store(goroutineID(), r)
}

func unregisterCurrent() {
	registry.Delete(goroutineID())
}

// CurrentReactor returns the Reactor owning the calling goroutine, if the
// calling goroutine is a reactor's loop goroutine, and ok=true. Used by the
// executor pool to prefer affinity when a caller already runs on a
// registered reactor.
func CurrentReactor() (r *Reactor, ok bool) {
	v, found := registry.Load(goroutineID())
	if !found {
		return nil, false
	}
	return v.(*Reactor), true
}
