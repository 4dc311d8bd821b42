package ctrack

import "runtime"

// Scope marks the start of an instrumented block. The caller defers the
// returned closure, which records the matching exit:
//
//	func DoWork() {
//	    defer ctrack.Scope()()
//	    ...
//	}
//
// The site's display name defaults to the enclosing function's short name.
func Scope() func() {
	return defaultProfiler.scope("")
}

// ScopeNamed is Scope with an explicit display name, for call sites where
// the function name alone would be ambiguous (e.g. inside a loop body, or
// a closure passed to several different callers).
func ScopeNamed(name string) func() {
	return defaultProfiler.scope(name)
}

func (p *profilerContext) scope(name string) func() {
	pc, _, _, ok := runtime.Caller(2)
	if !ok {
		pc = 0
	}

	siteID, err := p.sites.intern(pc, name)
	if err != nil {
		// A misuse error (conflicting names for one call site) must never
		// take down the caller's own code path; the scope is still timed,
		// just attributed to whichever site id was already interned.
		siteID, _ = p.sites.intern(pc, "")
	}

	gid := currentGoroutineID()
	buf := p.registry.bufferFor(gid)
	enter := now()

	done := false
	return func() {
		if done {
			return
		}
		done = true
		buf.append(RawEvent{SiteID: siteID, Enter: enter, Exit: now()})
	}
}
