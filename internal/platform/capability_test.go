package platform

import "testing"

func TestCapability_String(t *testing.T) {
	c := Capability{Major: 7, Minor: 5}
	if c.String() != "7.5" {
		t.Errorf("Expected 7.5, got %s", c.String())
	}
}

func TestCapability_AtLeast(t *testing.T) {
	tests := []struct {
		cap          Capability
		major, minor int
		want         bool
	}{
		{Capability{9, 0}, 9, 0, true},
		{Capability{9, 0}, 8, 6, true},
		{Capability{8, 6}, 9, 0, false},
		{Capability{9, 9}, 10, 0, false},
		{Capability{10, 0}, 10, 0, true},
		{Capability{12, 0}, 10, 0, true},
	}
	for _, tt := range tests {
		if got := tt.cap.AtLeast(tt.major, tt.minor); got != tt.want {
			t.Errorf("%s.AtLeast(%d, %d) = %v, want %v", tt.cap, tt.major, tt.minor, got, tt.want)
		}
	}
}

func TestCapability_IsHopper(t *testing.T) {
	if !(Capability{9, 0}).IsHopper() {
		t.Error("Expected 9.0 to be Hopper")
	}
	if (Capability{9, 1}).IsHopper() {
		t.Error("Expected 9.1 to not be Hopper")
	}
	if (Capability{8, 0}).IsHopper() {
		t.Error("Expected 8.0 to not be Hopper")
	}
}

func TestCapability_IsSM10x(t *testing.T) {
	if (Capability{9, 9}).IsSM10x() {
		t.Error("Expected 9.9 to not be SM10x")
	}
	if !(Capability{10, 0}).IsSM10x() {
		t.Error("Expected 10.0 to be SM10x")
	}
	if !(Capability{10, 3}).IsSM10x() {
		t.Error("Expected 10.3 to be SM10x")
	}
}
