// Package mtml is a raw binding to the Moore Threads management library
// (libmtml.so). It loads the vendor shared object at runtime and calls the
// handful of functions needed for MtLink topology queries, bypassing any
// higher-level driver wrapper. No cgo and no separate shared library build
// is required.
package mtml

import (
	"fmt"
)

// DefaultLibraryPath is where the vendor driver package installs libmtml.
const DefaultLibraryPath = "/usr/lib/libmtml.so"

// StatusSuccess is the return code for a successful mtml call.
const StatusSuccess = 0

// UUIDBufferSize is the vendor-recommended buffer size guaranteed to hold a
// device UUID string including its NUL terminator.
const UUIDBufferSize = 48

// Device is an opaque device handle owned by the vendor library.
type Device uintptr

// LinkState describes the state of a single MtLink port.
type LinkState uint32

// LinkStateUp marks a link that is trained and usable.
const LinkStateUp LinkState = 1

// LinkSpec describes the MtLink fabric of a device. The ABI struct carries
// four reserved words after LinkCount; they are dropped here.
type LinkSpec struct {
	Version   uint32 `json:"version"`
	Bandwidth uint32 `json:"bandwidth"`
	LinkCount uint32 `json:"linkCount"`
}

// P2PStatus reports whether two devices can reach each other over MtLink.
type P2PStatus int

const (
	// P2PStatusOK means a trained link connects the two devices.
	P2PStatusOK P2PStatus = 0
	// P2PStatusNotOK means no usable link was found, or a query failed.
	P2PStatusNotOK P2PStatus = 1
)

func (s P2PStatus) String() string {
	if s == P2PStatusOK {
		return "OK"
	}
	return "NOT_OK"
}

// MarshalJSON encodes the status as its string form.
func (s P2PStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Error is a non-zero status code returned by an mtml call.
type Error struct {
	Call string
	Code int32
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed, code=%d", e.Call, e.Code)
}

// API is the device query surface needed for topology checks. *Library
// implements it; tests substitute fakes.
type API interface {
	// DeviceUUID returns the device UUID string, trimmed at the NUL
	// terminator.
	DeviceUUID(dev Device) (string, error)
	// LinkSpec returns the MtLink spec of the device.
	LinkSpec(dev Device) (LinkSpec, error)
	// LinkState returns the state of one link port.
	LinkState(dev Device, link uint32) (LinkState, error)
	// RemoteDevice returns the device on the far end of one link port.
	RemoteDevice(dev Device, link uint32) (Device, error)
}

// DeviceOpener extends API with device acquisition, for callers that
// enumerate devices themselves.
type DeviceOpener interface {
	API
	DeviceByIndex(index uint32) (Device, error)
}

// P2P reports whether a and b are directly connected by a trained MtLink.
// It walks every link of a, comparing the remote endpoint UUID against b.
// Any failure to query either endpoint yields P2PStatusNotOK; failures on
// individual links skip to the next link.
func P2P(api API, a, b Device) P2PStatus {
	// Both endpoints must report UUIDs before the link walk.
	if _, err := api.DeviceUUID(a); err != nil {
		return P2PStatusNotOK
	}
	want, err := api.DeviceUUID(b)
	if err != nil {
		return P2PStatusNotOK
	}

	spec, err := api.LinkSpec(a)
	if err != nil {
		return P2PStatusNotOK
	}

	for link := uint32(0); link < spec.LinkCount; link++ {
		state, err := api.LinkState(a, link)
		if err != nil {
			continue
		}
		remote, err := api.RemoteDevice(a, link)
		if err != nil {
			continue
		}
		uuid, err := api.DeviceUUID(remote)
		if err != nil {
			continue
		}
		if uuid == want && state == LinkStateUp {
			return P2PStatusOK
		}
	}
	return P2PStatusNotOK
}
