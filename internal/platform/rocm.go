package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// kfdTopologyNodes is where the AMD KFD driver exposes topology nodes.
// Each node directory holds a properties file of "key value" lines; GPU
// nodes have a non-zero simd_count.
const kfdTopologyNodes = "/sys/class/kfd/kfd/topology/nodes"

type rocmPlatform struct {
	nodesDir string
}

func init() {
	Register(&rocmPlatform{nodesDir: kfdTopologyNodes})
}

func (p *rocmPlatform) Kind() Kind   { return KindROCm }
func (p *rocmPlatform) Name() string { return "rocm" }

// DeviceType is "cuda": torch ROCm builds expose devices through the cuda
// device namespace.
func (p *rocmPlatform) DeviceType() string           { return "cuda" }
func (p *rocmPlatform) DispatchKey() string          { return "CUDA" }
func (p *rocmPlatform) VisibleDevicesEnv() string    { return "HIP_VISIBLE_DEVICES" }
func (p *rocmPlatform) CommunicationBackend() string { return "nccl" }

func (p *rocmPlatform) DeviceCount() (int, error) {
	nodes, err := p.gpuNodes()
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// DeviceName reports the gfx target of the device ("gfx942").
func (p *rocmPlatform) DeviceName(device int) (string, error) {
	version, err := p.gfxTargetVersion(device)
	if err != nil {
		return "", err
	}
	return gfxName(version), nil
}

func (p *rocmPlatform) DeviceCapability(device int) (Capability, error) {
	version, err := p.gfxTargetVersion(device)
	if err != nil {
		return Capability{}, err
	}
	return Capability{
		Major: int(version / 10000),
		Minor: int(version % 10000 / 100),
	}, nil
}

func (p *rocmPlatform) TotalMemory(device int) (uint64, error) {
	node, err := p.gpuNode(device)
	if err != nil {
		return 0, err
	}
	banks, err := filepath.Glob(filepath.Join(node, "mem_banks", "*", "properties"))
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, bank := range banks {
		props, err := readKFDProperties(bank)
		if err != nil {
			continue
		}
		total += props["size_in_bytes"]
	}
	return total, nil
}

// MemoryUsage is unsupported: the KFD topology tree carries sizes, not
// usage counters.
func (p *rocmPlatform) MemoryUsage(device int) (uint64, error) {
	return 0, ErrNotSupported
}

func (p *rocmPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return asyncOutputSupported(enforceEager)
}

func (p *rocmPlatform) AttentionBackend(selected string) (string, error) {
	switch selected {
	case "":
		return AttentionTriton, nil
	case AttentionTriton, AttentionTorchSDPA, AttentionTorchNative:
		return selected, nil
	}
	return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
}

func (p *rocmPlatform) LogWarnings() {}

// gpuNodes lists topology node directories with a non-zero simd_count, in
// node-id order. CPU nodes are skipped.
func (p *rocmPlatform) gpuNodes() ([]string, error) {
	entries, err := os.ReadDir(p.nodesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read KFD topology: %w", err)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var nodes []string
	for _, id := range ids {
		node := filepath.Join(p.nodesDir, strconv.Itoa(id))
		props, err := readKFDProperties(filepath.Join(node, "properties"))
		if err != nil {
			continue
		}
		if props["simd_count"] == 0 {
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (p *rocmPlatform) gpuNode(device int) (string, error) {
	nodes, err := p.gpuNodes()
	if err != nil {
		return "", err
	}
	if device < 0 || device >= len(nodes) {
		return "", fmt.Errorf("device index %d out of range (%d devices)", device, len(nodes))
	}
	return nodes[device], nil
}

func (p *rocmPlatform) gfxTargetVersion(device int) (uint64, error) {
	node, err := p.gpuNode(device)
	if err != nil {
		return 0, err
	}
	props, err := readKFDProperties(filepath.Join(node, "properties"))
	if err != nil {
		return 0, err
	}
	version, ok := props["gfx_target_version"]
	if !ok || version == 0 {
		return 0, fmt.Errorf("device %d: no gfx_target_version in KFD properties", device)
	}
	return version, nil
}

// readKFDProperties parses a KFD properties file of "key value" lines.
func readKFDProperties(path string) (map[string]uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	props := make(map[string]uint64)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		props[fields[0]] = value
	}
	return props, nil
}

// gfxName renders a KFD gfx_target_version (e.g. 90402) as the gfx target
// string ("gfx942"). The stepping digit is hexadecimal: 9.0.10 is gfx90a.
func gfxName(version uint64) string {
	major := version / 10000
	minor := version % 10000 / 100
	step := version % 100
	return fmt.Sprintf("gfx%d%d%x", major, minor, step)
}
