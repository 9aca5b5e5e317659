package port

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSource(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create source directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
}

func setupSourceTree(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "csrc")
	writeSource(t, src, "allreduce/custom_all_reduce.cu",
		"#include <ATen/cuda/CUDAContext.h>\n"+
			"#include \"custom_all_reduce.cuh\"\n"+
			"auto stream = at::cuda::getCurrentCUDAStream();\n")
	writeSource(t, src, "allreduce/custom_all_reduce.cuh",
		"#include <c10/cuda/CUDAGuard.h>\n"+
			"c10::cuda::CUDAGuard guard(device);\n")
	writeSource(t, src, "moe/moe_align_kernel.cu",
		"#include <THC/THCAtomics.cuh>\n")
	writeSource(t, src, "README.md", "Mentions at::cuda but is not source.\n")
	writeSource(t, src, "untouched.cpp", "int main() { return 0; }\n")
	return src
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	return string(data)
}

func TestPort_RewritesSources(t *testing.T) {
	src := setupSourceTree(t)
	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}

	out := manifest.OutputDir
	ported := readOutput(t, out, "allreduce/custom_all_reduce.mu")
	for _, want := range []string{
		`#include "torch_musa/csrc/aten/musa/MUSAContext.h"`,
		`#include "custom_all_reduce.muh"`,
		"at::musa::getCurrentCUDAStream",
	} {
		if !strings.Contains(ported, want) {
			t.Errorf("Expected ported source to contain %q, got:\n%s", want, ported)
		}
	}
	if strings.Contains(ported, "at::cuda") {
		t.Errorf("Expected no at::cuda left in ported source, got:\n%s", ported)
	}

	header := readOutput(t, out, "allreduce/custom_all_reduce.muh")
	if !strings.Contains(header, `#include "torch_musa/csrc/core/MUSAGuard.h"`) {
		t.Errorf("Expected MUSAGuard include in ported header, got:\n%s", header)
	}
	if !strings.Contains(header, "c10::musa::CUDAGuard") {
		t.Errorf("Expected c10::musa namespace in ported header, got:\n%s", header)
	}

	moe := readOutput(t, out, "moe/moe_align_kernel.mu")
	if !strings.Contains(moe, "#include <THC/THCAtomics.muh>") {
		t.Errorf("Expected THCAtomics.muh include, got:\n%s", moe)
	}
}

func TestPort_DefaultOutputDir(t *testing.T) {
	src := setupSourceTree(t)
	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	if want := src + "_musa"; manifest.OutputDir != want {
		t.Errorf("Expected output dir %s, got %s", want, manifest.OutputDir)
	}
}

func TestPort_NonSourceCopiedVerbatim(t *testing.T) {
	src := setupSourceTree(t)
	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	readme := readOutput(t, manifest.OutputDir, "README.md")
	if !strings.Contains(readme, "at::cuda") {
		t.Errorf("Expected README.md copied verbatim, got:\n%s", readme)
	}
}

func TestPort_ZeroHitsStillCopied(t *testing.T) {
	src := setupSourceTree(t)
	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	if got := readOutput(t, manifest.OutputDir, "untouched.cpp"); got != "int main() { return 0; }\n" {
		t.Errorf("Expected untouched.cpp copied unchanged, got:\n%s", got)
	}
}

func TestPort_BinaryCopiedVerbatim(t *testing.T) {
	src := filepath.Join(t.TempDir(), "csrc")
	raw := append([]byte("at::cuda\x00"), 0xff, 0xfe)
	writeSource(t, src, "blob.cu", string(raw))

	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(manifest.OutputDir, "blob.mu"))
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Errorf("Expected binary file copied verbatim, got %q", got)
	}
	if len(manifest.Files) != 1 || !manifest.Files[0].Binary {
		t.Errorf("Expected a single binary record, got %+v", manifest.Files)
	}
}

func TestPort_ManifestRoundTrip(t *testing.T) {
	src := setupSourceTree(t)
	manifest, err := NewMUSAPorter().Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}

	loaded, err := LoadManifest(manifest.OutputDir)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if loaded.SourceDir != src {
		t.Errorf("Expected source dir %s, got %s", src, loaded.SourceDir)
	}
	if len(loaded.Files) != len(manifest.Files) {
		t.Errorf("Expected %d file records, got %d", len(manifest.Files), len(loaded.Files))
	}
	if loaded.Replacements == 0 {
		t.Error("Expected a nonzero replacement count")
	}
	if loaded.RuleHits["at::cuda"] == 0 {
		t.Error("Expected rule hits recorded for at::cuda")
	}
}

func TestPort_DryRunWritesNothing(t *testing.T) {
	src := setupSourceTree(t)
	porter := NewMUSAPorter()
	porter.DryRun = true

	manifest, err := porter.Port(src, "")
	if err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	if len(manifest.Files) == 0 {
		t.Error("Expected dry run to report file records")
	}
	if manifest.Replacements == 0 {
		t.Error("Expected dry run to count replacements")
	}
	if _, err := os.Stat(manifest.OutputDir); !os.IsNotExist(err) {
		t.Errorf("Expected no output directory after dry run, stat err = %v", err)
	}
}

func TestPort_OutputInsideSourceRejected(t *testing.T) {
	src := setupSourceTree(t)
	if _, err := NewMUSAPorter().Port(src, filepath.Join(src, "out")); err == nil {
		t.Fatal("Expected error for output inside source, got nil")
	}
	if _, err := NewMUSAPorter().Port(src, filepath.Join(src, "..out")); err == nil {
		t.Fatal("Expected error for dot-dot-named output inside source, got nil")
	}
	if _, err := NewMUSAPorter().Port(src, src); err == nil {
		t.Fatal("Expected error for output equal to source, got nil")
	}
}

func TestPort_RelativeOutputInsideSourceRejected(t *testing.T) {
	src := setupSourceTree(t)
	t.Chdir(src)

	if _, err := NewMUSAPorter().Port(src, "out"); err == nil {
		t.Fatal("Expected error for relative output inside source, got nil")
	}
}

func TestPort_ReplacesStaleOutput(t *testing.T) {
	src := setupSourceTree(t)
	out := filepath.Join(t.TempDir(), "csrc_musa")
	writeSource(t, out, "allreduce/custom_all_reduce.mu", "stale contents\n")

	if _, err := NewMUSAPorter().Port(src, out); err != nil {
		t.Fatalf("Port failed: %v", err)
	}
	if got := readOutput(t, out, "allreduce/custom_all_reduce.mu"); strings.Contains(got, "stale") {
		t.Errorf("Expected stale output replaced, got:\n%s", got)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(t.TempDir())
	if !errors.Is(err, ErrNoManifest) {
		t.Errorf("Expected ErrNoManifest, got %v", err)
	}
}
