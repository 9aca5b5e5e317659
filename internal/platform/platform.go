// Package platform abstracts accelerator vendors behind a uniform query
// interface: device naming, compute capability, memory, distributed
// communication backend, and attention backend selection. Vendors register
// themselves at init; Detect picks the active one from device nodes.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Kind identifies an accelerator vendor.
type Kind string

const (
	KindCUDA    Kind = "cuda"
	KindROCm    Kind = "rocm"
	KindMUSA    Kind = "musa"
	KindXPU     Kind = "xpu"
	KindNPU     Kind = "npu"
	KindCPU     Kind = "cpu"
	KindUnknown Kind = "unknown"
)

// Attention backend identifiers understood by the runtime.
const (
	AttentionFlashInfer  = "flashinfer"
	AttentionTriton      = "triton"
	AttentionTorchSDPA   = "torch_sdpa"
	AttentionTorchNative = "torch_native"
	AttentionIntelAMX    = "intel_amx"
)

// ErrNotSupported is returned for queries a platform cannot answer, either
// because the vendor exposes no such query or because the binding is
// unavailable on this OS.
var ErrNotSupported = errors.New("platform: not supported")

// Platform exposes uniform queries over one accelerator vendor's APIs.
// Device indices follow the vendor's enumeration order.
type Platform interface {
	Kind() Kind
	// Name is the short vendor name ("musa").
	Name() string
	// DeviceType is the runtime device string ("musa", "cuda", "cpu").
	DeviceType() string
	// DispatchKey is the tensor-runtime dispatch key ("MUSA").
	DispatchKey() string
	// VisibleDevicesEnv names the device-control environment variable, or
	// is empty when the vendor has none.
	VisibleDevicesEnv() string
	// CommunicationBackend names the torch.distributed backend ("mccl").
	CommunicationBackend() string

	DeviceCount() (int, error)
	DeviceName(device int) (string, error)
	DeviceCapability(device int) (Capability, error)
	// TotalMemory returns the device memory size in bytes.
	TotalMemory(device int) (uint64, error)
	// MemoryUsage returns the bytes currently in use on the device.
	MemoryUsage(device int) (uint64, error)

	// SupportsAsyncOutput reports whether async output processing can be
	// used. Forcing eager mode disables it.
	SupportsAsyncOutput(enforceEager bool) bool
	// AttentionBackend validates the selected attention backend id and
	// returns the effective one. An empty selection picks the platform
	// default.
	AttentionBackend(selected string) (string, error)
	// LogWarnings emits vendor-specific startup warnings.
	LogWarnings()
}

var (
	platformsMu sync.RWMutex
	platforms   = map[Kind]Platform{}
)

// Register makes a platform available through For and Active. Platforms
// register themselves in init; re-registering a kind replaces it.
func Register(p Platform) {
	platformsMu.Lock()
	platforms[p.Kind()] = p
	platformsMu.Unlock()
}

// For returns the registered platform for the given kind.
func For(kind Kind) (Platform, error) {
	platformsMu.RLock()
	p, ok := platforms[kind]
	platformsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no platform registered for %q", kind)
	}
	return p, nil
}

// Kinds returns the registered platform kinds, sorted.
func Kinds() []Kind {
	platformsMu.RLock()
	defer platformsMu.RUnlock()
	kinds := make([]Kind, 0, len(platforms))
	for kind := range platforms {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// DeviceString renders the runtime device string, optionally scoped to a
// device index: "musa" for a negative index, "musa:3" otherwise.
func DeviceString(p Platform, index int) string {
	if index < 0 {
		return p.DeviceType()
	}
	return fmt.Sprintf("%s:%d", p.DeviceType(), index)
}

// asyncOutputSupported implements the shared gating for async output
// processing: it requires graph capture, so forcing eager mode disables it.
func asyncOutputSupported(enforceEager bool) bool {
	if enforceEager {
		slog.Warn("To see benefits of async output processing, enable CUDA graph. " +
			"Since enforce-eager is enabled, async output processor cannot be used")
		return false
	}
	return true
}

// Info is the JSON summary of a platform, as served by the inventory API.
type Info struct {
	Kind                 Kind   `json:"kind"`
	Name                 string `json:"name"`
	DeviceType           string `json:"deviceType"`
	DispatchKey          string `json:"dispatchKey"`
	VisibleDevicesEnv    string `json:"visibleDevicesEnv,omitempty"`
	CommunicationBackend string `json:"communicationBackend"`
	DeviceCount          int    `json:"deviceCount"`
}

// Describe summarizes a platform. The device count is best effort and stays
// zero when the vendor driver is unavailable.
func Describe(p Platform) Info {
	info := Info{
		Kind:                 p.Kind(),
		Name:                 p.Name(),
		DeviceType:           p.DeviceType(),
		DispatchKey:          p.DispatchKey(),
		VisibleDevicesEnv:    p.VisibleDevicesEnv(),
		CommunicationBackend: p.CommunicationBackend(),
	}
	if count, err := p.DeviceCount(); err == nil {
		info.DeviceCount = count
	}
	return info
}

// DeviceInfo is the JSON summary of one device.
type DeviceInfo struct {
	Index       int         `json:"index"`
	Name        string      `json:"name"`
	Capability  *Capability `json:"capability,omitempty"`
	TotalMemory uint64      `json:"totalMemory,omitempty"`
}

// Devices enumerates the platform's devices. Queries a platform does not
// support are left empty; real query failures abort the enumeration.
func Devices(p Platform) ([]DeviceInfo, error) {
	count, err := p.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info := DeviceInfo{Index: i}

		name, err := p.DeviceName(i)
		if err != nil && !errors.Is(err, ErrNotSupported) {
			return nil, fmt.Errorf("failed to query device %d name: %w", i, err)
		}
		info.Name = name

		capability, err := p.DeviceCapability(i)
		if err == nil {
			info.Capability = &capability
		} else if !errors.Is(err, ErrNotSupported) {
			return nil, fmt.Errorf("failed to query device %d capability: %w", i, err)
		}

		total, err := p.TotalMemory(i)
		if err == nil {
			info.TotalMemory = total
		} else if !errors.Is(err, ErrNotSupported) {
			return nil, fmt.Errorf("failed to query device %d memory: %w", i, err)
		}

		devices = append(devices, info)
	}
	return devices, nil
}
