//go:build !linux

package platform

import "fmt"

// load always fails: vendor drivers are only dlopened on Linux.
func (d *driver) load() error {
	return fmt.Errorf("%s driver: %w", d.vendor, ErrNotSupported)
}
