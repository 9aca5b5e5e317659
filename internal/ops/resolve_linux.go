//go:build linux

package ops

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	kernelMu      sync.Mutex
	kernelHandles = map[string]uintptr{}
)

func openKernelLibrary(path string) (uintptr, error) {
	kernelMu.Lock()
	defer kernelMu.Unlock()
	if handle, ok := kernelHandles[path]; ok {
		return handle, nil
	}
	handle, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return 0, fmt.Errorf("failed to load kernel library %s: %w", path, err)
	}
	kernelHandles[path] = handle
	return handle, nil
}

// symbolResolver resolves op as an exported symbol of the kernel library.
func symbolResolver(op string) Resolver {
	return func() (Entry, error) {
		path := kernelLibraryPath()
		handle, err := openKernelLibrary(path)
		if err != nil {
			return Entry{}, err
		}
		addr, err := purego.Dlsym(handle, op)
		if err != nil {
			return Entry{}, fmt.Errorf("failed to resolve op %s in %s: %w", op, path, err)
		}
		return Entry{Op: op, Symbol: op, Library: path, Addr: addr}, nil
	}
}
