package mtml

// Topology is a point-in-time view of the MtLink fabric: one UUID per
// probed device and the pairwise link status matrix.
type Topology struct {
	UUIDs  []string      `json:"uuids"`
	Status [][]P2PStatus `json:"p2p"`
}

// DefaultMaxDevices caps device probing when the caller does not know the
// device count. The library exposes no count query; probing stops at the
// first out-of-range error.
const DefaultMaxDevices = 16

// Snapshot enumerates devices starting at index 0 and computes the pairwise
// P2P matrix. Enumeration stops at the first index the library rejects, or
// at maxDevices (DefaultMaxDevices when maxDevices <= 0). The diagonal is
// reported OK without a link walk.
func Snapshot(api DeviceOpener, maxDevices int) (*Topology, error) {
	if maxDevices <= 0 {
		maxDevices = DefaultMaxDevices
	}

	var devs []Device
	for i := 0; i < maxDevices; i++ {
		dev, err := api.DeviceByIndex(uint32(i))
		if err != nil {
			break
		}
		devs = append(devs, dev)
	}

	topo := &Topology{
		UUIDs:  make([]string, len(devs)),
		Status: make([][]P2PStatus, len(devs)),
	}
	for i, dev := range devs {
		uuid, err := api.DeviceUUID(dev)
		if err != nil {
			return nil, err
		}
		topo.UUIDs[i] = uuid
	}
	for i := range devs {
		topo.Status[i] = make([]P2PStatus, len(devs))
		for j := range devs {
			if i == j {
				topo.Status[i][j] = P2PStatusOK
				continue
			}
			topo.Status[i][j] = P2P(api, devs[i], devs[j])
		}
	}
	return topo, nil
}
