// Package port rewrites CUDA C++ source trees into their MUSA form and
// assembles the build plan for the resulting kernel extension. Porting is
// textual: ordered search-and-replace rules plus extension renames. No
// compiler is involved.
package port

import "path/filepath"

// Rule rewrites every occurrence of From with To. Rules apply in order;
// later rules see the output of earlier ones.
type Rule struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DefaultMUSARules returns the stock CUDA to MUSA mapping: include
// rewrites first, then the at:: and c10:: namespace renames.
func DefaultMUSARules() []Rule {
	return []Rule{
		{From: "#include <ATen/cuda/CUDAContext.h>", To: `#include "torch_musa/csrc/aten/musa/MUSAContext.h"`},
		{From: "#include <ATen/cuda/Exceptions.h>", To: `#include "torch_musa/csrc/aten/musa/Exceptions.h"`},
		{From: "#include <THC/THCAtomics.cuh>", To: "#include <THC/THCAtomics.muh>"},
		{From: "#include <c10/cuda/CUDAGuard.h>", To: `#include "torch_musa/csrc/core/MUSAGuard.h"`},
		{From: "#include <c10/cuda/CUDAStream.h>", To: `#include "torch_musa/csrc/core/MUSAStream.h"`},
		{From: `#include "custom_all_reduce.cuh"`, To: `#include "custom_all_reduce.muh"`},
		{From: "at::cuda", To: "at::musa"},
		{From: "c10::cuda", To: "c10::musa"},
	}
}

// DefaultExtensionRenames maps CUDA source extensions to their MUSA
// counterparts. Files with other extensions keep their names.
func DefaultExtensionRenames() map[string]string {
	return map[string]string{
		".cu":  ".mu",
		".cuh": ".muh",
	}
}

var portableExtensions = map[string]bool{
	".cu":  true,
	".cuh": true,
	".h":   true,
	".hpp": true,
	".cc":  true,
	".cpp": true,
	".inc": true,
}

// DefaultInclude reports whether the porter should rewrite path. Files
// outside the source-extension set are copied verbatim.
func DefaultInclude(path string) bool {
	return portableExtensions[filepath.Ext(path)]
}
