package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/yeahdongcn/sglang/internal/ops"
)

var opsResolve bool

var opsCmd = &cobra.Command{
	Use:   "ops [backend]",
	Short: "List custom-op backends and their op tables",
	Long: `Without arguments, lists every registered backend. With a backend
name, lists that backend's ops. The backend for the detected platform is
used when --resolve is given without a name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOps,
}

func init() {
	opsCmd.Flags().BoolVar(&opsResolve, "resolve", false, "Resolve every op against the kernel library")
	rootCmd.AddCommand(opsCmd)
}

func runOps(cmd *cobra.Command, args []string) error {
	registry := ops.Default()

	if len(args) == 0 && !opsResolve {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BACKEND\tOPS")
		fmt.Fprintln(w, "-------\t---")
		for _, name := range registry.Backends() {
			backend, err := registry.Backend(name)
			if err != nil {
				return fmt.Errorf("failed to load backend %s: %w", name, err)
			}
			fmt.Fprintf(w, "%s\t%d\n", name, len(backend.Ops()))
		}
		w.Flush()
		return nil
	}

	var backend *ops.Backend
	var err error
	if len(args) > 0 {
		backend, err = registry.Backend(args[0])
	} else {
		backend, err = registry.Active()
	}
	if err != nil {
		return err
	}

	names := backend.Ops()
	if len(names) == 0 {
		fmt.Printf("Backend %s has no custom ops.\n", backend.Name())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if opsResolve {
		fmt.Fprintln(w, "OP\tSTATUS")
		fmt.Fprintln(w, "--\t------")
	} else {
		fmt.Fprintln(w, "OP")
		fmt.Fprintln(w, "--")
	}

	failures := 0
	for _, name := range names {
		if !opsResolve {
			fmt.Fprintln(w, name)
			continue
		}
		op, err := backend.Op(name)
		if err != nil {
			return err
		}
		entry, err := op.Resolve()
		if err != nil {
			failures++
			fmt.Fprintf(w, "%s\t%v\n", name, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s@%#x\n", name, entry.Library, entry.Addr)
	}
	w.Flush()

	if opsResolve {
		fmt.Printf("\nResolved %d/%d ops for backend %s\n", len(names)-failures, len(names), backend.Name())
	}
	return nil
}
