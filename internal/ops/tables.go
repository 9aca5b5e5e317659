package ops

// Stock op tables. Each backend lists the kernel entry points its shared
// library exports; backends without a kernel library get an empty table
// and ops fall back to framework implementations.

var cudaOps = []string{
	"silu_and_mul",
	"gelu_and_mul",
	"init_custom_ar",
	"all_reduce",
	"dispose",
	"meta_size",
	"register_buffer",
	"register_graph_buffers",
	"get_graph_buffer_ipc_meta",
	"moe_align_block_size",
	"topk_softmax",
	"apply_token_bitmask_inplace_cuda",
	"verify_tree_greedy",
	"build_tree_kernel_efficient",
}

var hipOps = []string{
	"silu_and_mul",
	"gelu_and_mul",
	"gelu_quick",
	"gelu_tanh_and_mul",
}

// musaOps tracks the ports that build under MUSA today. Activation and
// speculative kernels are still disabled in the port plan.
var musaOps = []string{
	"get_graph_buffer_ipc_meta",
	"register_graph_buffers",
	"dispose",
	"meta_size",
	"register_buffer",
	"init_custom_ar",
	"all_reduce",
	"moe_align_block_size",
	"topk_softmax",
	"apply_token_bitmask_inplace_cuda",
}

var xpuOps = []string{
	"silu_and_mul",
	"gelu_and_mul",
}

func stockBackend(name string, opNames []string) Factory {
	return func() (*Backend, error) {
		specs := make(map[string]Resolver, len(opNames))
		for _, op := range opNames {
			specs[op] = symbolResolver(op)
		}
		return NewBackend(name, specs), nil
	}
}

func emptyBackend(name string) Factory {
	return func() (*Backend, error) {
		return NewBackend(name, nil), nil
	}
}

func init() {
	RegisterBackend("cuda", stockBackend("cuda", cudaOps))
	RegisterBackend("hip", stockBackend("hip", hipOps))
	RegisterBackend("musa", stockBackend("musa", musaOps))
	RegisterBackend("xpu", stockBackend("xpu", xpuOps))
	RegisterBackend("npu", emptyBackend("npu"))
	RegisterBackend("cpu", emptyBackend("cpu"))
	RegisterBackend("cpu_amx", emptyBackend("cpu_amx"))
	RegisterBackend("native", emptyBackend("native"))
}
