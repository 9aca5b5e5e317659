package ops

import (
	"errors"
	"sync/atomic"
	"testing"
)

func testRegistry(detected string) *Registry {
	r := NewRegistry()
	r.detect = func() string { return detected }
	return r
}

func TestRegistry_ConstructsBackendOnce(t *testing.T) {
	r := testRegistry("musa")
	var built atomic.Int32
	r.RegisterBackend("musa", func() (*Backend, error) {
		built.Add(1)
		return staticBackend("musa", "all_reduce"), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := r.Backend("musa"); err != nil {
			t.Fatalf("Backend failed: %v", err)
		}
	}
	if built.Load() != 1 {
		t.Errorf("Expected 1 factory call, got %d", built.Load())
	}
}

func TestRegistry_UnregisteredBackend(t *testing.T) {
	r := testRegistry("native")
	_, err := r.Backend("tpu")
	if err == nil {
		t.Fatal("Expected error for unregistered backend, got nil")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	r := testRegistry("cuda")
	want := errors.New("dlopen failed")
	r.RegisterBackend("cuda", func() (*Backend, error) {
		return nil, want
	})
	if _, err := r.Backend("cuda"); !errors.Is(err, want) {
		t.Errorf("Expected error wrapping %v, got %v", want, err)
	}
}

func TestRegistry_ReregisterReplacesBackend(t *testing.T) {
	r := testRegistry("musa")
	r.RegisterBackend("musa", func() (*Backend, error) {
		return staticBackend("musa", "all_reduce"), nil
	})
	if _, err := r.Backend("musa"); err != nil {
		t.Fatalf("Backend failed: %v", err)
	}

	r.RegisterBackend("musa", func() (*Backend, error) {
		return staticBackend("musa", "topk_softmax"), nil
	})
	backend, err := r.Backend("musa")
	if err != nil {
		t.Fatalf("Backend failed after re-register: %v", err)
	}
	if _, err := backend.Op("topk_softmax"); err != nil {
		t.Errorf("Expected replacement backend to provide topk_softmax: %v", err)
	}
	if _, err := backend.Op("all_reduce"); err == nil {
		t.Error("Expected replacement backend to drop all_reduce")
	}
}

func TestRegistry_ActiveUsesDetectedPlatform(t *testing.T) {
	r := testRegistry("hip")
	r.RegisterBackend("hip", func() (*Backend, error) {
		return staticBackend("hip", "gelu_quick"), nil
	})
	backend, err := r.Active()
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if backend.Name() != "hip" {
		t.Errorf("Expected backend hip, got %s", backend.Name())
	}
}

func TestRegistry_NativeFallback(t *testing.T) {
	r := testRegistry("native")
	r.RegisterBackend("native", emptyBackend("native"))
	backend, err := r.Active()
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if backend.Name() != "native" {
		t.Errorf("Expected backend native, got %s", backend.Name())
	}
	if len(backend.Ops()) != 0 {
		t.Errorf("Expected empty native op table, got %d ops", len(backend.Ops()))
	}
}

func TestRegistry_Op(t *testing.T) {
	r := testRegistry("musa")
	r.RegisterBackend("musa", func() (*Backend, error) {
		return staticBackend("musa", "topk_softmax"), nil
	})

	op, err := r.Op("topk_softmax")
	if err != nil {
		t.Fatalf("Op failed: %v", err)
	}
	if op.Name() != "topk_softmax" {
		t.Errorf("Expected op topk_softmax, got %s", op.Name())
	}

	if _, err := r.Op("verify_tree_greedy"); err == nil {
		t.Error("Expected error for op missing from active backend")
	}
}

func TestRegistry_Backends(t *testing.T) {
	r := testRegistry("cpu")
	r.RegisterBackend("musa", emptyBackend("musa"))
	r.RegisterBackend("cuda", emptyBackend("cuda"))

	got := r.Backends()
	want := []string{"cuda", "musa"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d backends, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected backend %s at index %d, got %s", want[i], i, got[i])
		}
	}
}

func TestDefault_StockBackends(t *testing.T) {
	got := Default().Backends()
	want := []string{"cpu", "cpu_amx", "cuda", "hip", "musa", "native", "npu", "xpu"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d stock backends, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected backend %s at index %d, got %s", want[i], i, got[i])
		}
	}
}

func TestStockMUSABackend_OpSet(t *testing.T) {
	backend, err := Default().Backend("musa")
	if err != nil {
		t.Fatalf("Backend failed: %v", err)
	}
	if got := len(backend.Ops()); got != len(musaOps) {
		t.Errorf("Expected %d musa ops, got %d", len(musaOps), got)
	}
	for _, name := range []string{"all_reduce", "moe_align_block_size", "apply_token_bitmask_inplace_cuda"} {
		if _, err := backend.Op(name); err != nil {
			t.Errorf("Expected musa backend to provide %s: %v", name, err)
		}
	}
	// Activation and speculative kernels do not build under MUSA.
	for _, name := range []string{"silu_and_mul", "verify_tree_greedy"} {
		if _, err := backend.Op(name); err == nil {
			t.Errorf("Expected no %s op for musa backend", name)
		}
	}
}
