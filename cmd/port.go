package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yeahdongcn/sglang/internal/platform"
	"github.com/yeahdongcn/sglang/internal/port"
)

var (
	portOut    string
	portDryRun bool
	planRoot   string
	planArch   string
)

var portCmd = &cobra.Command{
	Use:   "port <source-dir>",
	Short: "Port CUDA kernel sources to MUSA",
	Long: `Rewrites a CUDA C++ source tree into its MUSA form: include and
namespace substitutions plus .cu/.cuh renames. A manifest of the changes
is written next to the ported sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runPort,
}

var portPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Emit the kernel extension build plan as JSON",
	Args:  cobra.NoArgs,
	RunE:  runPortPlan,
}

func init() {
	portCmd.Flags().StringVar(&portOut, "out", "", "Output directory (default <source-dir>_musa)")
	portCmd.Flags().BoolVar(&portDryRun, "dry-run", false, "Report changes without writing")

	portPlanCmd.Flags().StringVar(&planRoot, "root", ".", "Kernel project root")
	portPlanCmd.Flags().StringVar(&planArch, "arch", "", "GPU architecture target (default from the GPU, AMDGPU_TARGET, or "+port.DefaultArchTarget+")")

	portCmd.AddCommand(portPlanCmd)
	rootCmd.AddCommand(portCmd)
}

func runPort(cmd *cobra.Command, args []string) error {
	porter := port.NewMUSAPorter()
	porter.DryRun = portDryRun

	manifest, err := porter.Port(args[0], portOut)
	if err != nil {
		return err
	}

	if portDryRun {
		for _, record := range manifest.Files {
			if !record.Renamed && record.Replacements == 0 {
				continue
			}
			fmt.Printf("%s -> %s (%d replacements)\n", record.Source, record.Output, record.Replacements)
		}
		fmt.Printf("\nWould port %d files (%d replacements) to %s\n",
			len(manifest.Files), manifest.Replacements, manifest.OutputDir)
		return nil
	}

	fmt.Printf("Ported %d files (%d replacements) to %s\n",
		len(manifest.Files), manifest.Replacements, manifest.OutputDir)
	return nil
}

func runPortPlan(cmd *cobra.Command, args []string) error {
	target := planArch
	if target == "" {
		target = probeArchTarget()
	}

	plan, err := port.MUSAPlan(planRoot, target)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize plan: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// probeArchTarget asks the detected platform for device 0's architecture
// name. Only ROCm reports gfx names; everything else falls through to the
// AMDGPU_TARGET environment variable.
func probeArchTarget() string {
	p, err := platform.Active()
	if err != nil || p.Kind() != platform.KindROCm {
		return ""
	}
	name, err := p.DeviceName(0)
	if err != nil {
		return ""
	}
	return name
}
