package platform

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"
)

// HasAMX reports whether the host CPU supports Intel AMX tile operations,
// which gate the accelerated CPU GEMM paths.
func HasAMX() bool {
	return cpu.X86.HasAMXTile && cpu.X86.HasAMXBF16
}

type cpuPlatform struct {
	cpuinfoPath string
	meminfoPath string
}

func init() {
	Register(&cpuPlatform{
		cpuinfoPath: "/proc/cpuinfo",
		meminfoPath: "/proc/meminfo",
	})
}

func (p *cpuPlatform) Kind() Kind                   { return KindCPU }
func (p *cpuPlatform) Name() string                 { return "cpu" }
func (p *cpuPlatform) DeviceType() string           { return "cpu" }
func (p *cpuPlatform) DispatchKey() string          { return "CPU" }
func (p *cpuPlatform) VisibleDevicesEnv() string    { return "" }
func (p *cpuPlatform) CommunicationBackend() string { return "gloo" }

// DeviceCount is always one: the host is the device.
func (p *cpuPlatform) DeviceCount() (int, error) {
	return 1, nil
}

func (p *cpuPlatform) DeviceName(device int) (string, error) {
	if device != 0 {
		return "", fmt.Errorf("device index %d out of range (1 device)", device)
	}
	data, err := os.ReadFile(p.cpuinfoPath)
	if err != nil {
		return "", fmt.Errorf("failed to read cpuinfo: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if strings.TrimSpace(key) == "model name" {
			return strings.TrimSpace(value), nil
		}
	}
	return runtime.GOARCH, nil
}

func (p *cpuPlatform) DeviceCapability(device int) (Capability, error) {
	return Capability{}, ErrNotSupported
}

func (p *cpuPlatform) TotalMemory(device int) (uint64, error) {
	if device != 0 {
		return 0, fmt.Errorf("device index %d out of range (1 device)", device)
	}
	total, err := p.meminfoKB("MemTotal")
	if err != nil {
		return 0, err
	}
	return total * 1024, nil
}

func (p *cpuPlatform) MemoryUsage(device int) (uint64, error) {
	if device != 0 {
		return 0, fmt.Errorf("device index %d out of range (1 device)", device)
	}
	total, err := p.meminfoKB("MemTotal")
	if err != nil {
		return 0, err
	}
	available, err := p.meminfoKB("MemAvailable")
	if err != nil {
		return 0, err
	}
	if available > total {
		available = total
	}
	return (total - available) * 1024, nil
}

// SupportsAsyncOutput is always false on CPU: async output processing
// depends on graph capture.
func (p *cpuPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return false
}

func (p *cpuPlatform) AttentionBackend(selected string) (string, error) {
	switch selected {
	case "":
		if HasAMX() {
			return AttentionIntelAMX, nil
		}
		return AttentionTorchNative, nil
	case AttentionTorchNative, AttentionIntelAMX:
		return selected, nil
	}
	return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
}

func (p *cpuPlatform) LogWarnings() {}

func (p *cpuPlatform) meminfoKB(key string) (uint64, error) {
	data, err := os.ReadFile(p.meminfoPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read meminfo: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		name, rest, ok := strings.Cut(line, ":")
		if !ok || name != key {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		value, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse meminfo %s: %w", key, err)
		}
		return value, nil
	}
	return 0, fmt.Errorf("no %s entry in meminfo", key)
}
