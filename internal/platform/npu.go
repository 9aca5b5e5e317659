package platform

import (
	"fmt"
	"path/filepath"
)

// npuPlatform carries the Ascend NPU identity. Device queries beyond
// counting davinci nodes need the ACL runtime, which is not bound.
type npuPlatform struct {
	devDir string
}

func init() {
	Register(&npuPlatform{devDir: "/dev"})
}

func (p *npuPlatform) Kind() Kind         { return KindNPU }
func (p *npuPlatform) Name() string       { return "npu" }
func (p *npuPlatform) DeviceType() string { return "npu" }

// DispatchKey is PrivateUse1, the out-of-tree backend key torch assigns to
// the Ascend extension.
func (p *npuPlatform) DispatchKey() string          { return "PrivateUse1" }
func (p *npuPlatform) VisibleDevicesEnv() string    { return "ASCEND_RT_VISIBLE_DEVICES" }
func (p *npuPlatform) CommunicationBackend() string { return "hccl" }

func (p *npuPlatform) DeviceCount() (int, error) {
	nodes, err := filepath.Glob(filepath.Join(p.devDir, "davinci[0-9]*"))
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (p *npuPlatform) DeviceName(device int) (string, error) {
	return "", ErrNotSupported
}

func (p *npuPlatform) DeviceCapability(device int) (Capability, error) {
	return Capability{}, ErrNotSupported
}

func (p *npuPlatform) TotalMemory(device int) (uint64, error) {
	return 0, ErrNotSupported
}

func (p *npuPlatform) MemoryUsage(device int) (uint64, error) {
	return 0, ErrNotSupported
}

func (p *npuPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return asyncOutputSupported(enforceEager)
}

func (p *npuPlatform) AttentionBackend(selected string) (string, error) {
	if selected != "" && selected != AttentionTorchSDPA {
		return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
	}
	return AttentionTorchSDPA, nil
}

func (p *npuPlatform) LogWarnings() {}
