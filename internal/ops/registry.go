package ops

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/yeahdongcn/sglang/internal/platform"
)

// Factory constructs a backend. Factories run at most once per registry;
// the built backend is cached.
type Factory func() (*Backend, error)

// Registry maps backend names to factories and picks the active backend
// from the detected platform. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	cache     map[string]*Backend

	detect     func() string
	nativeWarn sync.Once
}

// NewRegistry returns an empty registry using platform detection.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]Factory{},
		cache:     map[string]*Backend{},
		detect:    detectBackendName,
	}
}

// RegisterBackend registers a backend factory. Re-registering a name
// replaces the factory and drops any cached backend, so tests can stub.
func (r *Registry) RegisterBackend(name string, factory Factory) {
	r.mu.Lock()
	r.factories[name] = factory
	delete(r.cache, name)
	r.mu.Unlock()
}

// Backend returns the named backend, constructing it on first access.
func (r *Registry) Backend(name string) (*Backend, error) {
	r.mu.RLock()
	backend, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return backend, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if backend, ok := r.cache[name]; ok {
		return backend, nil
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("custom op backend %q not registered", name)
	}
	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize backend %q: %w", name, err)
	}
	r.cache[name] = backend
	slog.Info("Initialized custom-op backend", "backend", name)
	return backend, nil
}

// Active returns the backend for the detected platform.
func (r *Registry) Active() (*Backend, error) {
	name := r.detect()
	if name == "native" {
		r.nativeWarn.Do(func() {
			slog.Warn("No custom-op backend for this platform, falling back to native implementations")
		})
	}
	return r.Backend(name)
}

// Op returns the named op from the active backend.
func (r *Registry) Op(name string) (*LazyOp, error) {
	backend, err := r.Active()
	if err != nil {
		return nil, err
	}
	return backend.Op(name)
}

// Backends lists the registered backend names, sorted.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// detectBackendName maps the detected platform to a backend name. CPU
// hosts with AMX support get the AMX-accelerated table.
func detectBackendName() string {
	switch platform.Detect() {
	case platform.KindCUDA:
		return "cuda"
	case platform.KindROCm:
		return "hip"
	case platform.KindNPU:
		return "npu"
	case platform.KindXPU:
		return "xpu"
	case platform.KindMUSA:
		return "musa"
	case platform.KindCPU:
		if platform.HasAMX() {
			return "cpu_amx"
		}
		return "cpu"
	}
	return "native"
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry the stock backends register
// into.
func Default() *Registry {
	return defaultRegistry
}

// RegisterBackend registers a factory in the default registry.
func RegisterBackend(name string, factory Factory) {
	defaultRegistry.RegisterBackend(name, factory)
}
