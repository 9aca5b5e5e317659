package platform

import (
	"os"
	"path/filepath"
	"testing"
)

// fakeDevDir builds a temporary /dev tree containing the given node names.
func fakeDevDir(t *testing.T, nodes ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, node := range nodes {
		path := filepath.Join(dir, node)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create node dir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("Failed to create node %s: %v", node, err)
		}
	}
	return dir
}

func TestProbe_VendorNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		want  Kind
	}{
		{"nvidia control node", []string{"nvidiactl"}, KindCUDA},
		{"nvidia device node", []string{"nvidia0"}, KindCUDA},
		{"amd kfd", []string{"kfd"}, KindROCm},
		{"ascend manager", []string{"davinci_manager"}, KindNPU},
		{"ascend device", []string{"davinci0"}, KindNPU},
		{"intel accel", []string{"accel"}, KindXPU},
		{"moore threads", []string{"mtgpu"}, KindMUSA},
		{"moore threads numbered", []string{"musa0"}, KindMUSA},
		{"no accelerator", nil, KindCPU},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := fakeDevDir(t, tt.nodes...)
			if got := probe(dir); got != tt.want {
				t.Errorf("probe(%v) = %s, want %s", tt.nodes, got, tt.want)
			}
		})
	}
}

func TestProbe_PrefersCUDAOverROCm(t *testing.T) {
	dir := fakeDevDir(t, "nvidiactl", "kfd")
	if got := probe(dir); got != KindCUDA {
		t.Errorf("Expected cuda to win the probe order, got %s", got)
	}
}

func TestDetect_EnvOverride(t *testing.T) {
	t.Setenv("SGL_PLATFORM", "musa")
	if got := detect(); got != KindMUSA {
		t.Errorf("Expected musa from SGL_PLATFORM, got %s", got)
	}

	t.Setenv("SGL_PLATFORM", " ROCm ")
	if got := detect(); got != KindROCm {
		t.Errorf("Expected rocm from trimmed SGL_PLATFORM, got %s", got)
	}
}

func TestDetect_EnvOverrideUnknown(t *testing.T) {
	t.Setenv("SGL_PLATFORM", "quantum")
	if got, want := detect(), probe("/dev"); got != want {
		t.Errorf("Expected unknown override to fall back to probing (%s), got %s", want, got)
	}
}

func TestFor_UnknownKind(t *testing.T) {
	if _, err := For(Kind("tpu")); err == nil {
		t.Error("Expected error for unregistered kind")
	}
}

func TestFor_RegisteredKinds(t *testing.T) {
	for _, kind := range []Kind{KindCUDA, KindROCm, KindMUSA, KindXPU, KindNPU, KindCPU} {
		p, err := For(kind)
		if err != nil {
			t.Fatalf("For(%s) failed: %v", kind, err)
		}
		if p.Kind() != kind {
			t.Errorf("For(%s) returned platform of kind %s", kind, p.Kind())
		}
	}
}

func TestKinds_Sorted(t *testing.T) {
	got := Kinds()
	want := []Kind{KindCPU, KindCUDA, KindMUSA, KindNPU, KindROCm, KindXPU}
	if len(got) != len(want) {
		t.Fatalf("Expected %d kinds, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected kind %s at index %d, got %s", want[i], i, got[i])
		}
	}
}
