package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yeahdongcn/sglang/internal/platform"
)

var infoDevice int

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show platform attributes and devices",
	Long: `Display the detected platform's attributes and a per-device table
with name, compute capability, and memory.`,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().IntVar(&infoDevice, "device", -1, "Show a single device by index")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	p, err := platform.Active()
	if err != nil {
		return fmt.Errorf("failed to resolve platform: %w", err)
	}
	p.LogWarnings()

	if infoDevice >= 0 {
		return printDevice(p, infoDevice)
	}

	info := platform.Describe(p)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Platform:\t%s\n", info.Kind)
	fmt.Fprintf(w, "Device type:\t%s\n", info.DeviceType)
	fmt.Fprintf(w, "Dispatch key:\t%s\n", info.DispatchKey)
	if info.VisibleDevicesEnv != "" {
		fmt.Fprintf(w, "Visible devices env:\t%s\n", info.VisibleDevicesEnv)
	}
	fmt.Fprintf(w, "Communication backend:\t%s\n", info.CommunicationBackend)
	fmt.Fprintf(w, "Devices:\t%d\n", info.DeviceCount)
	w.Flush()

	devices, err := platform.Devices(p)
	if err != nil {
		return fmt.Errorf("failed to query devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tNAME\tCAPABILITY\tMEMORY")
	fmt.Fprintln(w, "-----\t----\t----------\t------")
	for _, device := range devices {
		capability := "-"
		if device.Capability != nil {
			capability = device.Capability.String()
		}
		memory := "-"
		if device.TotalMemory > 0 {
			memory = formatBytes(device.TotalMemory)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", device.Index, device.Name, capability, memory)
	}
	w.Flush()

	return nil
}

// printDevice shows one device, including live memory usage when the
// platform can report it.
func printDevice(p platform.Platform, device int) error {
	name, err := p.DeviceName(device)
	if err != nil && !errors.Is(err, platform.ErrNotSupported) {
		return fmt.Errorf("failed to query device %d: %w", device, err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Device:\t%s\n", platform.DeviceString(p, device))
	if name != "" {
		fmt.Fprintf(w, "Name:\t%s\n", name)
	}

	if capability, err := p.DeviceCapability(device); err == nil {
		fmt.Fprintf(w, "Capability:\t%s\n", capability)
	} else if !errors.Is(err, platform.ErrNotSupported) {
		return fmt.Errorf("failed to query device %d capability: %w", device, err)
	}

	if total, err := p.TotalMemory(device); err == nil {
		fmt.Fprintf(w, "Total memory:\t%s\n", formatBytes(total))
	} else if !errors.Is(err, platform.ErrNotSupported) {
		return fmt.Errorf("failed to query device %d memory: %w", device, err)
	}

	if used, err := p.MemoryUsage(device); err == nil {
		fmt.Fprintf(w, "Memory in use:\t%s\n", formatBytes(used))
	} else if !errors.Is(err, platform.ErrNotSupported) {
		return fmt.Errorf("failed to query device %d memory usage: %w", device, err)
	}

	w.Flush()
	return nil
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
