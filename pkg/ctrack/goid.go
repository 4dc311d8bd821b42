package ctrack

import (
	"runtime"
	"strconv"
	"sync"
)

// goroutineID identifies the goroutine calling into the library. Go gives no
// supported, allocation-free way to read this outside of the runtime
// package itself, so we fall back to the well-known trick of parsing it out
// of the header line of runtime.Stack's output ("goroutine 123 [running]:").
//
// This runs on every Scope/ScopeNamed call, not just the first one per
// goroutine: Go has no public thread-local-storage primitive, so there is
// no cheap, safe place to stash a per-goroutine cache between calls without
// either pinning goroutines to a lookup key we'd still have to resolve the
// same way, or reaching past the language into assembly to read the
// runtime's g pointer directly. The sync.Pool below only amortizes the
// scratch buffer used for the parse, not the parse itself. See DESIGN.md's
// goroutine-identity Open Question for the tradeoff this accepts.
type goroutineID uint64

var stackBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 64)
		return &buf
	},
}

func currentGoroutineID() goroutineID {
	bufPtr := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bufPtr)

	buf := *bufPtr
	n := runtime.Stack(buf, false)
	for n >= len(buf) {
		buf = make([]byte, 2*len(buf))
		n = runtime.Stack(buf, false)
	}
	*bufPtr = buf

	return parseGoroutineID(buf[:n])
}

// parseGoroutineID extracts the numeric id from a "goroutine N [...]:" header.
func parseGoroutineID(header []byte) goroutineID {
	const prefix = "goroutine "
	if len(header) <= len(prefix) {
		return 0
	}
	header = header[len(prefix):]

	i := 0
	for i < len(header) && header[i] >= '0' && header[i] <= '9' {
		i++
	}
	id, err := strconv.ParseUint(string(header[:i]), 10, 64)
	if err != nil {
		return 0
	}
	return goroutineID(id)
}
