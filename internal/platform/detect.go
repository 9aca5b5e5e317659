package platform

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// wslNvidiaSMI marks an NVIDIA GPU passed through to WSL2.
const wslNvidiaSMI = "/usr/lib/wsl/lib/nvidia-smi"

var (
	detectOnce sync.Once
	detected   Kind
)

// Detect identifies the accelerator vendor for this host. The result is
// cached for the process lifetime. SGL_PLATFORM overrides probing; unknown
// values are ignored with a warning. Hosts without an accelerator detect
// as CPU, never as Unknown.
func Detect() Kind {
	detectOnce.Do(func() {
		detected = detect()
		slog.Debug("Detected platform", "kind", detected)
	})
	return detected
}

// Active returns the platform for the detected kind.
func Active() (Platform, error) {
	return For(Detect())
}

func detect() Kind {
	if v := os.Getenv("SGL_PLATFORM"); v != "" {
		kind := Kind(strings.ToLower(strings.TrimSpace(v)))
		if _, err := For(kind); err == nil {
			return kind
		}
		slog.Warn("Ignoring unknown SGL_PLATFORM value", "value", v, "known", Kinds())
	}
	return probe("/dev")
}

// probe inspects device nodes under devDir to identify the vendor.
func probe(devDir string) Kind {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(devDir, name))
		return err == nil
	}
	matches := func(pattern string) bool {
		found, _ := filepath.Glob(filepath.Join(devDir, pattern))
		return len(found) > 0
	}

	switch {
	case exists("nvidiactl") || exists("nvidia0"):
		return KindCUDA
	case exists("kfd"):
		return KindROCm
	case exists("davinci_manager") || matches("davinci[0-9]*"):
		return KindNPU
	case exists("accel"):
		return KindXPU
	case matches("mtgpu*") || matches("musa[0-9]*"):
		return KindMUSA
	case exists("dxg"):
		// WSL2 exposes GPUs through /dev/dxg; check for the NVIDIA
		// passthrough tooling.
		if _, err := os.Stat(wslNvidiaSMI); err == nil {
			return KindCUDA
		}
	}
	return KindCPU
}
