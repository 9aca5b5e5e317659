package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yeahdongcn/sglang/internal/platform"
)

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the accelerator platform",
	Long: `Probes the host for vendor device nodes and prints the detected
platform. Set SGL_PLATFORM to override detection.`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	p, err := platform.Active()
	if err != nil {
		return fmt.Errorf("failed to resolve platform: %w", err)
	}

	if detectJSON {
		data, err := json.MarshalIndent(platform.Describe(p), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize platform info: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(p.Kind())
	return nil
}
