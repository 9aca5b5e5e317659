package platform

import "fmt"

// Capability is a device compute capability, e.g. 7.5 for Turing or 9.0
// for Hopper. AMD targets map their gfx version onto Major/Minor.
type Capability struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func (c Capability) String() string {
	return fmt.Sprintf("%d.%d", c.Major, c.Minor)
}

// AtLeast reports whether the capability is major.minor or newer.
func (c Capability) AtLeast(major, minor int) bool {
	if c.Major != major {
		return c.Major > major
	}
	return c.Minor >= minor
}

// IsHopper reports a Hopper-generation device (compute capability 9.0).
func (c Capability) IsHopper() bool {
	return c.Major == 9 && c.Minor == 0
}

// IsSM10x reports compute capability 10.0 or newer.
func (c Capability) IsSM10x() bool {
	return c.AtLeast(10, 0)
}
