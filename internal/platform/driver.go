package platform

import (
	"fmt"
	"sync"
)

// Compute capability attribute ids from the CUDA driver API. The MUSA
// driver mirrors the numbering.
const (
	attrComputeCapabilityMajor = 75
	attrComputeCapabilityMinor = 76
)

// driverError is a non-zero status code from a vendor driver call.
type driverError struct {
	call string
	code int32
}

func (e *driverError) Error() string {
	return fmt.Sprintf("%s: error %d", e.call, e.code)
}

// driverSymbols names the exported driver functions of one vendor.
type driverSymbols struct {
	init               string
	deviceGetCount     string
	deviceGet          string
	deviceGetName      string
	deviceGetAttribute string
	deviceTotalMem     string
	memGetInfo         string
	ctxCreate          string
	ctxDestroy         string
}

// driver lazily dlopens a vendor driver library and binds the device query
// functions. The MUSA driver API mirrors the CUDA driver API with a "mu"
// symbol prefix, so one binding shape serves both vendors.
type driver struct {
	vendor   string
	libNames []string
	symbols  driverSymbols

	once sync.Once
	err  error

	init               func(flags uint32) int32
	deviceGetCount     func(count *int32) int32
	deviceGet          func(dev *int32, ordinal int32) int32
	deviceGetName      func(name *byte, length int32, dev int32) int32
	deviceGetAttribute func(value *int32, attrib int32, dev int32) int32
	deviceTotalMem     func(bytes *uint64, dev int32) int32
	memGetInfo         func(free, total *uint64) int32
	ctxCreate          func(ctx *uintptr, flags uint32, dev int32) int32
	ctxDestroy         func(ctx uintptr) int32
}

func (d *driver) deviceCount() (int, error) {
	if err := d.load(); err != nil {
		return 0, err
	}
	var count int32
	if code := d.deviceGetCount(&count); code != 0 {
		return 0, &driverError{call: d.symbols.deviceGetCount, code: code}
	}
	return int(count), nil
}

// handle resolves a device ordinal to the vendor device handle.
func (d *driver) handle(index int) (int32, error) {
	var dev int32
	if code := d.deviceGet(&dev, int32(index)); code != 0 {
		return 0, fmt.Errorf("device %d: %w", index, &driverError{call: d.symbols.deviceGet, code: code})
	}
	return dev, nil
}

func (d *driver) deviceName(index int) (string, error) {
	if err := d.load(); err != nil {
		return "", err
	}
	dev, err := d.handle(index)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 256)
	if code := d.deviceGetName(&buf[0], int32(len(buf)), dev); code != 0 {
		return "", &driverError{call: d.symbols.deviceGetName, code: code}
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}

func (d *driver) capability(index int) (Capability, error) {
	if err := d.load(); err != nil {
		return Capability{}, err
	}
	dev, err := d.handle(index)
	if err != nil {
		return Capability{}, err
	}
	var major, minor int32
	if code := d.deviceGetAttribute(&major, attrComputeCapabilityMajor, dev); code != 0 {
		return Capability{}, &driverError{call: d.symbols.deviceGetAttribute, code: code}
	}
	if code := d.deviceGetAttribute(&minor, attrComputeCapabilityMinor, dev); code != 0 {
		return Capability{}, &driverError{call: d.symbols.deviceGetAttribute, code: code}
	}
	return Capability{Major: int(major), Minor: int(minor)}, nil
}

func (d *driver) totalMemory(index int) (uint64, error) {
	if err := d.load(); err != nil {
		return 0, err
	}
	dev, err := d.handle(index)
	if err != nil {
		return 0, err
	}
	var bytes uint64
	if code := d.deviceTotalMem(&bytes, dev); code != 0 {
		return 0, &driverError{call: d.symbols.deviceTotalMem, code: code}
	}
	return bytes, nil
}

// memoryUsage reports total-free for the device. Memory info requires a
// context, so a short-lived one is created on the device.
func (d *driver) memoryUsage(index int) (uint64, error) {
	if err := d.load(); err != nil {
		return 0, err
	}
	dev, err := d.handle(index)
	if err != nil {
		return 0, err
	}
	var ctx uintptr
	if code := d.ctxCreate(&ctx, 0, dev); code != 0 {
		return 0, &driverError{call: d.symbols.ctxCreate, code: code}
	}
	defer d.ctxDestroy(ctx)

	var free, total uint64
	if code := d.memGetInfo(&free, &total); code != 0 {
		return 0, &driverError{call: d.symbols.memGetInfo, code: code}
	}
	return total - free, nil
}

// driverPlatform implements the device queries shared by vendors whose
// driver mirrors the CUDA driver library.
type driverPlatform struct {
	drv *driver
}

func (p *driverPlatform) DeviceCount() (int, error) {
	return p.drv.deviceCount()
}

func (p *driverPlatform) DeviceName(device int) (string, error) {
	return p.drv.deviceName(device)
}

func (p *driverPlatform) DeviceCapability(device int) (Capability, error) {
	return p.drv.capability(device)
}

func (p *driverPlatform) TotalMemory(device int) (uint64, error) {
	return p.drv.totalMemory(device)
}

func (p *driverPlatform) MemoryUsage(device int) (uint64, error) {
	return p.drv.memoryUsage(device)
}
