package ops

import "os"

// DefaultKernelLibrary is the shared library the stock backends resolve
// kernel entry points from. SGL_KERNEL_LIBRARY overrides the path.
const DefaultKernelLibrary = "libsgl_kernel.so"

func kernelLibraryPath() string {
	if path := os.Getenv("SGL_KERNEL_LIBRARY"); path != "" {
		return path
	}
	return DefaultKernelLibrary
}
