package platform

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NormalizeVisibleDevices validates a visible-devices value for the
// platform. The value is a comma-separated list of device indices or
// device UUIDs; bare UUIDs gain the "GPU-" prefix the runtimes expect.
// An empty value selects all devices and "-1" selects none. Any invalid
// token forces "-1", the safe interpretation.
func NormalizeVisibleDevices(p Platform, raw string) string {
	value := trimQuotes(strings.TrimSpace(raw))
	if value == "" {
		return ""
	}
	if value == "-1" {
		return "-1"
	}

	// Bounds checks are skipped when the device count is unknown, e.g.
	// when the vendor driver is not installed.
	count := -1
	if n, err := p.DeviceCount(); err == nil {
		count = n
	}

	var tokens []string
	for _, part := range strings.Split(value, ",") {
		token := trimQuotes(strings.TrimSpace(part))
		if token == "-1" {
			return "-1"
		}
		if isDeviceUUID(token) {
			tokens = append(tokens, "GPU-"+token)
			continue
		}
		if rest, ok := strings.CutPrefix(token, "GPU-"); ok && isDeviceUUID(rest) {
			tokens = append(tokens, token)
			continue
		}
		if index, err := strconv.Atoi(token); err == nil {
			if index < 0 || (count >= 0 && index >= count) {
				slog.Warn("Visible-devices index out of range",
					"env", p.VisibleDevicesEnv(), "value", token, "deviceCount", count)
				return "-1"
			}
			tokens = append(tokens, strconv.Itoa(index))
			continue
		}
		slog.Warn("Invalid visible-devices token",
			"env", p.VisibleDevicesEnv(), "value", token)
		return "-1"
	}
	return strings.Join(tokens, ",")
}

func isDeviceUUID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
