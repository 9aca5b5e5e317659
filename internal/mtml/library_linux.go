//go:build linux

package mtml

import (
	"os"
	"sync"

	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// ErrNotInitialized is returned for device calls made before Init.
var ErrNotInitialized = errors.New("mtml: library not initialized, call Init first")

var mtmlSymbols = []string{
	"mtmlLibraryInit",
	"mtmlLibraryShutDown",
	"mtmlLibraryInitDeviceByIndex",
	"mtmlDeviceGetMtLinkSpec",
	"mtmlDeviceGetMtLinkState",
	"mtmlDeviceGetMtLinkRemoteDevice",
	"mtmlDeviceGetUUID",
}

// Library binds the exported mtml functions of one loaded shared object.
// Handles are cached per path so repeated Opens share one dlopen.
type Library struct {
	path string

	libraryInit              func(lib *uintptr) int32
	libraryShutDown          func(lib uintptr) int32
	libraryInitDeviceByIndex func(lib uintptr, index uint32, dev *uintptr) int32
	deviceGetMtLinkSpec      func(dev uintptr, spec *uint32) int32
	deviceGetMtLinkState     func(dev uintptr, link uint32, state *uint32) int32
	deviceGetMtLinkRemote    func(dev uintptr, link uint32, remote *uintptr) int32
	deviceGetUUID            func(dev uintptr, uuid *byte, length uint32) int32

	mu      sync.Mutex
	session uintptr
}

var (
	libCacheMu sync.Mutex
	libCache   = map[string]*Library{}
)

// Open loads libmtml from path and binds its exported functions. An empty
// path falls back to MTML_LIBRARY_PATH, then to DefaultLibraryPath.
func Open(path string) (*Library, error) {
	if path == "" {
		path = os.Getenv("MTML_LIBRARY_PATH")
	}
	if path == "" {
		path = DefaultLibraryPath
	}

	libCacheMu.Lock()
	defer libCacheMu.Unlock()
	if lib, ok := libCache[path]; ok {
		return lib, nil
	}

	handle, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}

	addrs := make(map[string]uintptr, len(mtmlSymbols))
	for _, name := range mtmlSymbols {
		addr, err := purego.Dlsym(handle, name)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %s not found in %s", name, path)
		}
		addrs[name] = addr
	}

	lib := &Library{path: path}
	purego.RegisterFunc(&lib.libraryInit, addrs["mtmlLibraryInit"])
	purego.RegisterFunc(&lib.libraryShutDown, addrs["mtmlLibraryShutDown"])
	purego.RegisterFunc(&lib.libraryInitDeviceByIndex, addrs["mtmlLibraryInitDeviceByIndex"])
	purego.RegisterFunc(&lib.deviceGetMtLinkSpec, addrs["mtmlDeviceGetMtLinkSpec"])
	purego.RegisterFunc(&lib.deviceGetMtLinkState, addrs["mtmlDeviceGetMtLinkState"])
	purego.RegisterFunc(&lib.deviceGetMtLinkRemote, addrs["mtmlDeviceGetMtLinkRemoteDevice"])
	purego.RegisterFunc(&lib.deviceGetUUID, addrs["mtmlDeviceGetUUID"])

	libCache[path] = lib
	return lib, nil
}

// Path returns the shared object path this library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Init initializes the vendor library session.
func (l *Library) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var session uintptr
	if code := l.libraryInit(&session); code != StatusSuccess {
		return &Error{Call: "mtmlLibraryInit", Code: code}
	}
	l.session = session
	return nil
}

// Shutdown releases the vendor library session. Calling Shutdown on an
// uninitialized library is a no-op.
func (l *Library) Shutdown() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.session == 0 {
		return nil
	}
	if code := l.libraryShutDown(l.session); code != StatusSuccess {
		return &Error{Call: "mtmlLibraryShutDown", Code: code}
	}
	l.session = 0
	return nil
}

// DeviceByIndex acquires the device handle for the given index.
func (l *Library) DeviceByIndex(index uint32) (Device, error) {
	l.mu.Lock()
	session := l.session
	l.mu.Unlock()
	if session == 0 {
		return 0, ErrNotInitialized
	}
	var dev uintptr
	if code := l.libraryInitDeviceByIndex(session, index, &dev); code != StatusSuccess {
		return 0, &Error{Call: "mtmlLibraryInitDeviceByIndex", Code: code}
	}
	return Device(dev), nil
}

// LinkSpec returns the MtLink spec of the device.
func (l *Library) LinkSpec(dev Device) (LinkSpec, error) {
	// version, bandWidth, linkNum plus four reserved words.
	var raw [7]uint32
	if code := l.deviceGetMtLinkSpec(uintptr(dev), &raw[0]); code != StatusSuccess {
		return LinkSpec{}, &Error{Call: "mtmlDeviceGetMtLinkSpec", Code: code}
	}
	return LinkSpec{Version: raw[0], Bandwidth: raw[1], LinkCount: raw[2]}, nil
}

// LinkState returns the state of one link port of the device.
func (l *Library) LinkState(dev Device, link uint32) (LinkState, error) {
	var state uint32
	if code := l.deviceGetMtLinkState(uintptr(dev), link, &state); code != StatusSuccess {
		return 0, &Error{Call: "mtmlDeviceGetMtLinkState", Code: code}
	}
	return LinkState(state), nil
}

// RemoteDevice returns the device on the far end of one link port.
func (l *Library) RemoteDevice(dev Device, link uint32) (Device, error) {
	var remote uintptr
	if code := l.deviceGetMtLinkRemote(uintptr(dev), link, &remote); code != StatusSuccess {
		return 0, &Error{Call: "mtmlDeviceGetMtLinkRemoteDevice", Code: code}
	}
	return Device(remote), nil
}

// DeviceUUID returns the device UUID string, trimmed at the NUL terminator.
func (l *Library) DeviceUUID(dev Device) (string, error) {
	buf := make([]byte, UUIDBufferSize)
	if code := l.deviceGetUUID(uintptr(dev), &buf[0], UUIDBufferSize); code != StatusSuccess {
		return "", &Error{Call: "mtmlDeviceGetUUID", Code: code}
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return string(buf), nil
}
