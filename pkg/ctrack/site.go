package ctrack

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Compaile/ctrack/internal/utils"
)

// Site is an instrumentation point, identified by where it was declared in
// source. Sites are created once, on first use, and are immutable and
// stable for the remainder of the process.
//
// ID is only stable within a single process (or a single persisted events
// file); Fingerprint is derived from (File, Line, Name) and stays stable
// across runs and across files, so it is what a caller should use to
// correlate a site between two separately captured reports.
type Site struct {
	ID          int
	File        string
	Line        int
	Function    string
	Name        string
	Fingerprint uint64
}

func siteFingerprint(file string, line int, name string) uint64 {
	return utils.Hash(fmt.Sprintf("%s:%d:%s", file, line, name))
}

type siteKey struct {
	file string
	line int
	name string
}

// siteRegistry interns call sites into small integer handles. The fast path
// (a site already seen from this exact return address) is lock-free via a
// sync.Map; only the first encounter of a given pc takes siteRegistry.mu.
type siteRegistry struct {
	mu    sync.Mutex
	sites []Site
	byKey map[siteKey]int

	pcCache sync.Map // uintptr(pc) -> int(site id)
}

func newSiteRegistry() *siteRegistry {
	return &siteRegistry{
		byKey: make(map[siteKey]int),
	}
}

// intern resolves the integer handle for the call site at pc, the return
// address captured by runtime.Caller at the Scope/ScopeNamed call. name, if
// empty, defaults to the enclosing function's short name.
func (r *siteRegistry) intern(pc uintptr, name string) (int, error) {
	if cached, ok := r.pcCache.Load(pc); ok {
		id := cached.(int)
		if name != "" {
			if err := r.checkName(id, name); err != nil {
				return 0, err
			}
		}
		return id, nil
	}

	file, line, function := resolvePC(pc)
	if name == "" {
		name = function
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := siteKey{file: file, line: line, name: name}
	if id, ok := r.byKey[key]; ok {
		r.pcCache.Store(pc, id)
		return id, nil
	}

	id := len(r.sites)
	r.sites = append(r.sites, Site{
		ID:          id,
		File:        file,
		Line:        line,
		Function:    function,
		Name:        name,
		Fingerprint: siteFingerprint(file, line, name),
	})
	r.byKey[key] = id
	r.pcCache.Store(pc, id)

	return id, nil
}

func (r *siteRegistry) checkName(id int, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.sites) {
		return nil
	}
	if r.sites[id].Name != name {
		return ErrSiteNameConflict
	}
	return nil
}

func (r *siteRegistry) get(id int) (Site, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 0 || id >= len(r.sites) {
		return Site{}, false
	}
	return r.sites[id], true
}

func (r *siteRegistry) snapshot() []Site {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Site, len(r.sites))
	copy(out, r.sites)
	return out
}

// internExternal re-interns a site read from a persisted event file, keyed
// by (file, line, name) rather than by pc, since a file's numeric site ids
// are only meaningful within that file.
func (r *siteRegistry) internExternal(file string, line int, name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := siteKey{file: file, line: line, name: name}
	if id, ok := r.byKey[key]; ok {
		return id
	}

	id := len(r.sites)
	r.sites = append(r.sites, Site{
		ID:          id,
		File:        file,
		Line:        line,
		Name:        name,
		Fingerprint: siteFingerprint(file, line, name),
	})
	r.byKey[key] = id

	return id
}

func resolvePC(pc uintptr) (file string, line int, function string) {
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", 0, "unknown"
	}
	file, line = fn.FileLine(pc)
	function = shortFuncName(fn.Name())
	return file, line, function
}

// shortFuncName trims a fully-qualified runtime function name
// ("github.com/Compaile/ctrack/pkg/ctrack.(*T).Method") down to the part a
// human would write by hand ("(*T).Method").
func shortFuncName(full string) string {
	slash := -1
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == '/' {
			slash = i
			break
		}
	}
	rest := full
	if slash >= 0 {
		rest = full[slash+1:]
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] == '.' {
			return rest[i+1:]
		}
	}
	return rest
}
