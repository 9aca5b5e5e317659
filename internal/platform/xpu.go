package platform

import (
	"fmt"
	"path/filepath"
)

// xpuPlatform carries the Intel GPU identity. Device queries beyond
// counting render nodes need the Level Zero runtime, which is not bound.
type xpuPlatform struct {
	driDir string
}

func init() {
	Register(&xpuPlatform{driDir: "/dev/dri"})
}

func (p *xpuPlatform) Kind() Kind                   { return KindXPU }
func (p *xpuPlatform) Name() string                 { return "xpu" }
func (p *xpuPlatform) DeviceType() string           { return "xpu" }
func (p *xpuPlatform) DispatchKey() string          { return "XPU" }
func (p *xpuPlatform) VisibleDevicesEnv() string    { return "ONEAPI_DEVICE_SELECTOR" }
func (p *xpuPlatform) CommunicationBackend() string { return "ccl" }

func (p *xpuPlatform) DeviceCount() (int, error) {
	nodes, err := filepath.Glob(filepath.Join(p.driDir, "renderD[0-9]*"))
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (p *xpuPlatform) DeviceName(device int) (string, error) {
	return "", ErrNotSupported
}

func (p *xpuPlatform) DeviceCapability(device int) (Capability, error) {
	return Capability{}, ErrNotSupported
}

func (p *xpuPlatform) TotalMemory(device int) (uint64, error) {
	return 0, ErrNotSupported
}

func (p *xpuPlatform) MemoryUsage(device int) (uint64, error) {
	return 0, ErrNotSupported
}

func (p *xpuPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return asyncOutputSupported(enforceEager)
}

func (p *xpuPlatform) AttentionBackend(selected string) (string, error) {
	if selected != "" && selected != AttentionTorchSDPA {
		return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
	}
	return AttentionTorchSDPA, nil
}

func (p *xpuPlatform) LogWarnings() {}
