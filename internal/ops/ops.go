// Package ops is a registry of custom-operator backends. Each accelerator
// vendor contributes a named set of fused-kernel entry points; ops resolve
// lazily, on first use, against the vendor kernel library. The registry
// only locates entry points, it never executes kernels.
package ops

import (
	"fmt"
	"sort"
	"sync"
)

// Entry is a resolved kernel entry point: a symbol address inside a loaded
// kernel library.
type Entry struct {
	Op      string  `json:"op"`
	Symbol  string  `json:"symbol"`
	Library string  `json:"library"`
	Addr    uintptr `json:"-"`
}

// Resolver locates the entry point for one op.
type Resolver func() (Entry, error)

// LazyOp defers entry-point resolution to first use and caches the result,
// including failures. Safe for concurrent use.
type LazyOp struct {
	name    string
	resolve Resolver

	once  sync.Once
	entry Entry
	err   error
}

// NewLazyOp wraps a resolver in a resolve-once op.
func NewLazyOp(name string, resolve Resolver) *LazyOp {
	return &LazyOp{name: name, resolve: resolve}
}

// Name returns the op name.
func (o *LazyOp) Name() string {
	return o.name
}

// Resolve returns the op's entry point, resolving it on the first call.
func (o *LazyOp) Resolve() (Entry, error) {
	o.once.Do(func() {
		o.entry, o.err = o.resolve()
	})
	return o.entry, o.err
}

// Backend is a named namespace of lazy ops.
type Backend struct {
	name string
	ops  map[string]*LazyOp
}

// NewBackend builds a backend from op resolvers.
func NewBackend(name string, specs map[string]Resolver) *Backend {
	ops := make(map[string]*LazyOp, len(specs))
	for op, resolve := range specs {
		ops[op] = NewLazyOp(op, resolve)
	}
	return &Backend{name: name, ops: ops}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return b.name
}

// Op returns the named lazy op. Unknown ops error with both names.
func (b *Backend) Op(name string) (*LazyOp, error) {
	op, ok := b.ops[name]
	if !ok {
		return nil, fmt.Errorf("no op %q for backend %q", name, b.name)
	}
	return op, nil
}

// Ops lists the backend's op names, sorted.
func (b *Backend) Ops() []string {
	names := make([]string, 0, len(b.ops))
	for name := range b.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
