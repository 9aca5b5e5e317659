//go:build !linux

package ops

import "errors"

// ErrNotSupported is returned by resolvers on platforms without dlopen.
var ErrNotSupported = errors.New("ops: kernel resolution is only supported on linux")

func symbolResolver(op string) Resolver {
	return func() (Entry, error) {
		return Entry{}, ErrNotSupported
	}
}
