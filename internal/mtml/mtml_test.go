package mtml

import (
	"fmt"
	"testing"
)

// fakeLink models one MtLink port of a fake device.
type fakeLink struct {
	state     LinkState
	remote    Device
	stateErr  error
	remoteErr error
}

// fakeDevice models a device with a fixed UUID and link table.
type fakeDevice struct {
	uuid    string
	uuidErr error
	spec    LinkSpec
	specErr error
	links   []fakeLink
}

// fakeAPI implements DeviceOpener over an in-memory device table.
type fakeAPI struct {
	devices map[Device]*fakeDevice
	order   []Device
}

func (f *fakeAPI) DeviceByIndex(index uint32) (Device, error) {
	if int(index) >= len(f.order) {
		return 0, &Error{Call: "mtmlLibraryInitDeviceByIndex", Code: 2}
	}
	return f.order[index], nil
}

func (f *fakeAPI) DeviceUUID(dev Device) (string, error) {
	d, ok := f.devices[dev]
	if !ok {
		return "", fmt.Errorf("unknown device %d", dev)
	}
	return d.uuid, d.uuidErr
}

func (f *fakeAPI) LinkSpec(dev Device) (LinkSpec, error) {
	d := f.devices[dev]
	if d.specErr != nil {
		return LinkSpec{}, d.specErr
	}
	return d.spec, nil
}

func (f *fakeAPI) LinkState(dev Device, link uint32) (LinkState, error) {
	l := f.devices[dev].links[link]
	return l.state, l.stateErr
}

func (f *fakeAPI) RemoteDevice(dev Device, link uint32) (Device, error) {
	l := f.devices[dev].links[link]
	return l.remote, l.remoteErr
}

// newFakePair builds two devices where dev 1 has a single link to dev 2.
func newFakePair(t *testing.T, state LinkState) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		devices: map[Device]*fakeDevice{
			1: {
				uuid: "MTGPU-aaaa",
				spec: LinkSpec{Version: 2, Bandwidth: 48, LinkCount: 1},
				links: []fakeLink{
					{state: state, remote: 2},
				},
			},
			2: {
				uuid: "MTGPU-bbbb",
				spec: LinkSpec{Version: 2, Bandwidth: 48, LinkCount: 1},
				links: []fakeLink{
					{state: state, remote: 1},
				},
			},
		},
		order: []Device{1, 2},
	}
	return api
}

func TestP2P_ConnectedByUpLink(t *testing.T) {
	api := newFakePair(t, LinkStateUp)

	if got := P2P(api, 1, 2); got != P2PStatusOK {
		t.Errorf("Expected OK for linked devices, got %s", got)
	}
}

func TestP2P_LinkDown(t *testing.T) {
	api := newFakePair(t, 0)

	if got := P2P(api, 1, 2); got != P2PStatusNotOK {
		t.Errorf("Expected NOT_OK for down link, got %s", got)
	}
}

func TestP2P_RemoteMismatch(t *testing.T) {
	api := newFakePair(t, LinkStateUp)
	// Point dev 1's only link at a third device.
	api.devices[3] = &fakeDevice{uuid: "MTGPU-cccc"}
	api.devices[1].links[0].remote = 3

	if got := P2P(api, 1, 2); got != P2PStatusNotOK {
		t.Errorf("Expected NOT_OK for mismatched remote, got %s", got)
	}
}

func TestP2P_SpecError(t *testing.T) {
	api := newFakePair(t, LinkStateUp)
	api.devices[1].specErr = &Error{Call: "mtmlDeviceGetMtLinkSpec", Code: 5}

	if got := P2P(api, 1, 2); got != P2PStatusNotOK {
		t.Errorf("Expected NOT_OK when link spec fails, got %s", got)
	}
}

func TestP2P_EndpointUUIDError(t *testing.T) {
	for _, dev := range []Device{1, 2} {
		api := newFakePair(t, LinkStateUp)
		api.devices[dev].uuidErr = &Error{Call: "mtmlDeviceGetUUID", Code: 7}

		if got := P2P(api, 1, 2); got != P2PStatusNotOK {
			t.Errorf("Expected NOT_OK when device %d UUID fails, got %s", dev, got)
		}
	}
}

func TestP2P_SkipsFailedLinks(t *testing.T) {
	api := newFakePair(t, LinkStateUp)
	// First link errors, second link reaches dev 2.
	api.devices[1].spec.LinkCount = 2
	api.devices[1].links = []fakeLink{
		{stateErr: &Error{Call: "mtmlDeviceGetMtLinkState", Code: 9}},
		{state: LinkStateUp, remote: 2},
	}

	if got := P2P(api, 1, 2); got != P2PStatusOK {
		t.Errorf("Expected OK via second link, got %s", got)
	}
}

func TestP2P_SkipsUnreadableRemote(t *testing.T) {
	api := newFakePair(t, LinkStateUp)
	api.devices[1].spec.LinkCount = 2
	api.devices[1].links = []fakeLink{
		{state: LinkStateUp, remoteErr: &Error{Call: "mtmlDeviceGetMtLinkRemoteDevice", Code: 4}},
		{state: LinkStateUp, remote: 2},
	}

	if got := P2P(api, 1, 2); got != P2PStatusOK {
		t.Errorf("Expected OK via second link, got %s", got)
	}
}

func TestSnapshot_PairMatrix(t *testing.T) {
	api := newFakePair(t, LinkStateUp)

	topo, err := Snapshot(api, 0)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if len(topo.UUIDs) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(topo.UUIDs))
	}
	if topo.UUIDs[0] != "MTGPU-aaaa" || topo.UUIDs[1] != "MTGPU-bbbb" {
		t.Errorf("Unexpected UUIDs: %v", topo.UUIDs)
	}

	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if topo.Status[i][j] != P2PStatusOK {
				t.Errorf("Expected OK at [%d][%d], got %s", i, j, topo.Status[i][j])
			}
		}
	}
}

func TestSnapshot_NoDevices(t *testing.T) {
	api := &fakeAPI{devices: map[Device]*fakeDevice{}}

	topo, err := Snapshot(api, 0)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(topo.UUIDs) != 0 || len(topo.Status) != 0 {
		t.Errorf("Expected empty topology, got %+v", topo)
	}
}

func TestSnapshot_RespectsMaxDevices(t *testing.T) {
	api := newFakePair(t, LinkStateUp)

	topo, err := Snapshot(api, 1)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(topo.UUIDs) != 1 {
		t.Errorf("Expected probing capped at 1 device, got %d", len(topo.UUIDs))
	}
}

func TestError_Message(t *testing.T) {
	err := &Error{Call: "mtmlLibraryInit", Code: 3}

	want := "mtmlLibraryInit failed, code=3"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
