package platform

import "fmt"

var cudaDriver = &driver{
	vendor:   "cuda",
	libNames: []string{"libcuda.so.1", "libcuda.so"},
	symbols: driverSymbols{
		init:               "cuInit",
		deviceGetCount:     "cuDeviceGetCount",
		deviceGet:          "cuDeviceGet",
		deviceGetName:      "cuDeviceGetName",
		deviceGetAttribute: "cuDeviceGetAttribute",
		deviceTotalMem:     "cuDeviceTotalMem_v2",
		memGetInfo:         "cuMemGetInfo_v2",
		ctxCreate:          "cuCtxCreate_v2",
		ctxDestroy:         "cuCtxDestroy_v2",
	},
}

type cudaPlatform struct {
	driverPlatform
}

func init() {
	Register(&cudaPlatform{driverPlatform{drv: cudaDriver}})
}

func (p *cudaPlatform) Kind() Kind                   { return KindCUDA }
func (p *cudaPlatform) Name() string                 { return "cuda" }
func (p *cudaPlatform) DeviceType() string           { return "cuda" }
func (p *cudaPlatform) DispatchKey() string          { return "CUDA" }
func (p *cudaPlatform) VisibleDevicesEnv() string    { return "CUDA_VISIBLE_DEVICES" }
func (p *cudaPlatform) CommunicationBackend() string { return "nccl" }

func (p *cudaPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return asyncOutputSupported(enforceEager)
}

func (p *cudaPlatform) AttentionBackend(selected string) (string, error) {
	switch selected {
	case "":
		return AttentionFlashInfer, nil
	case AttentionFlashInfer, AttentionTriton, AttentionTorchSDPA, AttentionTorchNative:
		return selected, nil
	}
	return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
}

func (p *cudaPlatform) LogWarnings() {}
