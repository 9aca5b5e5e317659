//go:build !linux

package mtml

import "github.com/pkg/errors"

// ErrNotSupported indicates the mtml binding is only available on Linux.
var ErrNotSupported = errors.New("mtml: only supported on linux")

// ErrNotInitialized is returned for device calls made before Init.
var ErrNotInitialized = errors.New("mtml: library not initialized, call Init first")

// Library is a placeholder on platforms without dlopen support for libmtml.
type Library struct{}

// Open returns ErrNotSupported on non-Linux platforms.
func Open(path string) (*Library, error) {
	return nil, ErrNotSupported
}

// Path returns the shared object path this library was loaded from.
func (l *Library) Path() string { return "" }

// Init returns ErrNotSupported on non-Linux platforms.
func (l *Library) Init() error { return ErrNotSupported }

// Shutdown is a no-op on non-Linux platforms.
func (l *Library) Shutdown() error { return nil }

// DeviceByIndex returns ErrNotSupported on non-Linux platforms.
func (l *Library) DeviceByIndex(index uint32) (Device, error) {
	return 0, ErrNotSupported
}

// LinkSpec returns ErrNotSupported on non-Linux platforms.
func (l *Library) LinkSpec(dev Device) (LinkSpec, error) {
	return LinkSpec{}, ErrNotSupported
}

// LinkState returns ErrNotSupported on non-Linux platforms.
func (l *Library) LinkState(dev Device, link uint32) (LinkState, error) {
	return 0, ErrNotSupported
}

// RemoteDevice returns ErrNotSupported on non-Linux platforms.
func (l *Library) RemoteDevice(dev Device, link uint32) (Device, error) {
	return 0, ErrNotSupported
}

// DeviceUUID returns ErrNotSupported on non-Linux platforms.
func (l *Library) DeviceUUID(dev Device) (string, error) {
	return "", ErrNotSupported
}
