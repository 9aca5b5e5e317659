package port

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Plan describes how the ported kernel extension is built: what to
// compile, with which flags, and against which libraries.
type Plan struct {
	Name              string   `json:"name"`
	OperatorNamespace string   `json:"operatorNamespace"`
	Version           string   `json:"version,omitempty"`
	ArchTarget        string   `json:"archTarget"`
	Sources           []string `json:"sources"`
	IncludeDirs       []string `json:"includeDirs"`
	CxxFlags          []string `json:"cxxFlags"`
	MccFlags          []string `json:"mccFlags"`
	Libraries         []string `json:"libraries"`
	LinkArgs          []string `json:"linkArgs"`
	Disabled          []string `json:"disabled,omitempty"`
}

// DefaultArchTarget is the architecture assumed when nothing selects one.
const DefaultArchTarget = "gfx942"

const operatorNamespace = "sgl_kernel"

var supportedArchTargets = []string{"gfx942", "gfx950"}

// musaSources are the ported entries that build today.
var musaSources = []string{
	"csrc_musa/allreduce/custom_all_reduce.mu",
	"csrc_musa/common_extension_musa.cc",
	"csrc_musa/grammar/apply_token_bitmask_inplace_cuda.mu",
	"csrc_musa/moe/moe_align_kernel.mu",
	"csrc_musa/moe/moe_topk_softmax_kernels.mu",
}

// musaDisabledSources do not build yet and stay out of the compile list.
var musaDisabledSources = []string{
	"csrc_musa/allreduce/quick_all_reduce.mu",
	"csrc_musa/elementwise/activation.mu",
	"csrc_musa/speculative/eagle_utils.mu",
}

// DefaultMUSAPlan assembles the stock build plan rooted at root. The arch
// target comes from AMDGPU_TARGET, defaulting to gfx942.
func DefaultMUSAPlan(root string) (*Plan, error) {
	return MUSAPlan(root, "")
}

// MUSAPlan assembles the stock build plan with an explicit arch target.
// An empty target falls back to AMDGPU_TARGET, then to the default.
func MUSAPlan(root, target string) (*Plan, error) {
	if target == "" {
		target = os.Getenv("AMDGPU_TARGET")
	}
	if target == "" {
		target = DefaultArchTarget
	}
	if !supportedArch(target) {
		return nil, fmt.Errorf("unsupported GPU architecture %q (expected one of %s)",
			target, strings.Join(supportedArchTargets, ", "))
	}

	return &Plan{
		Name:              operatorNamespace + ".common_ops",
		OperatorNamespace: operatorNamespace,
		Version:           versionFromPyproject(filepath.Join(root, "pyproject.toml")),
		ArchTarget:        target,
		Sources:           append([]string(nil), musaSources...),
		IncludeDirs: []string{
			filepath.Join(root, "include"),
			filepath.Join(root, "include", "impl"),
			filepath.Join(root, "csrc"),
		},
		CxxFlags: []string{"force_mcc"},
		MccFlags: []string{
			"-DNDEBUG",
			"-DOPERATOR_NAMESPACE=" + operatorNamespace,
			"-O3",
			"-fPIC",
			"-std=c++17",
			"-DUSE_MUSA",
		},
		Libraries: []string{"c10", "torch", "torch_python"},
		LinkArgs: []string{
			"-Wl,-rpath,$ORIGIN/../../torch/lib",
			"-L/usr/lib/" + machineArch() + "-linux-gnu",
		},
		Disabled: append([]string(nil), musaDisabledSources...),
	}, nil
}

func supportedArch(target string) bool {
	for _, arch := range supportedArchTargets {
		if arch == target {
			return true
		}
	}
	return false
}

// versionFromPyproject scans a pyproject.toml for its version line.
// Returns an empty string when the file or the line is missing.
func versionFromPyproject(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "version") {
			continue
		}
		_, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		return strings.Trim(strings.TrimSpace(value), `"`)
	}
	return ""
}

// machineArch returns the machine name used in multiarch library paths.
func machineArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	}
	return runtime.GOARCH
}
