package platform

import (
	"fmt"
	"log/slog"
)

// The MUSA driver API mirrors the CUDA driver API under a "mu" prefix;
// ports of CUDA code swap the prefix and recompile.
var musaDriver = &driver{
	vendor:   "musa",
	libNames: []string{"libmusa.so.1", "libmusa.so"},
	symbols: driverSymbols{
		init:               "muInit",
		deviceGetCount:     "muDeviceGetCount",
		deviceGet:          "muDeviceGet",
		deviceGetName:      "muDeviceGetName",
		deviceGetAttribute: "muDeviceGetAttribute",
		deviceTotalMem:     "muDeviceTotalMem",
		memGetInfo:         "muMemGetInfo",
		ctxCreate:          "muCtxCreate",
		ctxDestroy:         "muCtxDestroy",
	},
}

type musaPlatform struct {
	driverPlatform
}

func init() {
	Register(&musaPlatform{driverPlatform{drv: musaDriver}})
}

func (p *musaPlatform) Kind() Kind                   { return KindMUSA }
func (p *musaPlatform) Name() string                 { return "musa" }
func (p *musaPlatform) DeviceType() string           { return "musa" }
func (p *musaPlatform) DispatchKey() string          { return "MUSA" }
func (p *musaPlatform) VisibleDevicesEnv() string    { return "MUSA_VISIBLE_DEVICES" }
func (p *musaPlatform) CommunicationBackend() string { return "mccl" }

func (p *musaPlatform) SupportsAsyncOutput(enforceEager bool) bool {
	return asyncOutputSupported(enforceEager)
}

// AttentionBackend on MUSA accepts only the Torch SDPA backend; the fused
// attention kernels of the other backends are not ported.
func (p *musaPlatform) AttentionBackend(selected string) (string, error) {
	if selected != "" && selected != AttentionTorchSDPA {
		return "", fmt.Errorf("invalid attention backend for %s: %s", p.Name(), selected)
	}
	slog.Info("Using Torch SDPA backend.")
	return AttentionTorchSDPA, nil
}

func (p *musaPlatform) LogWarnings() {}
