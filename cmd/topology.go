package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yeahdongcn/sglang/internal/mtml"
)

var (
	topologyLib     string
	topologyDevices int
	topologyJSON    bool
)

var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Show the MtLink peer-to-peer topology",
	Long: `Queries the MTML library for every device pair and prints the
peer-to-peer connectivity matrix.`,
	RunE: runTopology,
}

func init() {
	topologyCmd.Flags().StringVar(&topologyLib, "lib", "", "MTML library path (default "+mtml.DefaultLibraryPath+")")
	topologyCmd.Flags().IntVar(&topologyDevices, "devices", mtml.DefaultMaxDevices, "Maximum devices to probe")
	topologyCmd.Flags().BoolVar(&topologyJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(topologyCmd)
}

func runTopology(cmd *cobra.Command, args []string) error {
	lib, err := mtml.Open(topologyLib)
	if err != nil {
		return fmt.Errorf("failed to load MTML library: %w", err)
	}
	if err := lib.Init(); err != nil {
		return fmt.Errorf("failed to initialize MTML: %w", err)
	}
	defer lib.Shutdown()

	topology, err := mtml.Snapshot(lib, topologyDevices)
	if err != nil {
		return fmt.Errorf("failed to snapshot topology: %w", err)
	}

	if topologyJSON {
		data, err := json.MarshalIndent(topology, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize topology: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(topology.UUIDs) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DEVICE\tUUID")
	fmt.Fprintln(w, "------\t----")
	for i, uuid := range topology.UUIDs {
		fmt.Fprintf(w, "GPU%d\t%s\n", i, uuid)
	}
	w.Flush()

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "P2P")
	for i := range topology.UUIDs {
		fmt.Fprintf(w, "\tGPU%d", i)
	}
	fmt.Fprintln(w)
	for i, row := range topology.Status {
		fmt.Fprintf(w, "GPU%d", i)
		for _, status := range row {
			fmt.Fprintf(w, "\t%s", status)
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	return nil
}
