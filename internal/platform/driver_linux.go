//go:build linux

package platform

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// load dlopens the vendor driver and binds the query functions. The driver
// is initialized once; all failures are sticky.
func (d *driver) load() error {
	d.once.Do(func() {
		var handle uintptr
		var err error
		for _, name := range d.libNames {
			handle, err = purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
			if err == nil {
				break
			}
		}
		if err != nil {
			d.err = fmt.Errorf("failed to load %s driver: %w (is the %s driver installed?)", d.vendor, err, d.vendor)
			return
		}

		bind := func(fptr any, name string) {
			if d.err != nil {
				return
			}
			addr, err := purego.Dlsym(handle, name)
			if err != nil {
				d.err = fmt.Errorf("symbol %s not found in %s driver: %w", name, d.vendor, err)
				return
			}
			purego.RegisterFunc(fptr, addr)
		}
		bind(&d.init, d.symbols.init)
		bind(&d.deviceGetCount, d.symbols.deviceGetCount)
		bind(&d.deviceGet, d.symbols.deviceGet)
		bind(&d.deviceGetName, d.symbols.deviceGetName)
		bind(&d.deviceGetAttribute, d.symbols.deviceGetAttribute)
		bind(&d.deviceTotalMem, d.symbols.deviceTotalMem)
		bind(&d.memGetInfo, d.symbols.memGetInfo)
		bind(&d.ctxCreate, d.symbols.ctxCreate)
		bind(&d.ctxDestroy, d.symbols.ctxDestroy)
		if d.err != nil {
			return
		}

		if code := d.init(0); code != 0 {
			d.err = &driverError{call: d.symbols.init, code: code}
		}
	})
	return d.err
}
