package corevx

import (
	"fmt"
	"sort"

	"github.com/corevx-run/corevx/kernel"
)

// LoadTarget inserts t into the Context's target table in priority
// order (lower Priority tried first), so Supports always tries the
// highest-priority match first, re-sorting on every load.
func (c *Context) LoadTarget(t kernel.Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.targets {
		if existing.Name() == t.Name() {
			return fmt.Errorf("target %q already loaded", t.Name())
		}
	}

	c.targets = append(c.targets, t)
	sort.SliceStable(c.targets, func(i, j int) bool {
		return c.targets[i].Priority() < c.targets[j].Priority()
	})
	return nil
}

// UnloadTarget removes a previously loaded target by name.
func (c *Context) UnloadTarget(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, t := range c.targets {
		if t.Name() == name {
			c.targets = append(c.targets[:i], c.targets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("target %q not loaded", name)
}

// Targets returns the loaded targets in priority order. Callers must
// not mutate the returned slice.
func (c *Context) Targets() []kernel.Target {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]kernel.Target, len(c.targets))
	copy(out, c.targets)
	return out
}

// Supports answers "is kernelName provided by some loaded target",
// returning the first match in priority order: the Context enumerates
// targets in priority order and picks the first match. index is the
// target's own internal kernel-table index, not its position within
// the Context's target list; use TargetAt for the latter.
func (c *Context) Supports(kernelName string) (t kernel.Target, index int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, target := range c.targets {
		if idx, found := target.Supports(kernelName); found {
			return target, idx, true
		}
	}
	return nil, 0, false
}

// TargetAt returns the target loaded at priority-ordered position i,
// the position Node.Affinity records during verification phase 10.
func (c *Context) TargetAt(i int) (kernel.Target, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.targets) {
		return nil, false
	}
	return c.targets[i], true
}
