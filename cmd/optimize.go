package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotplan/config"
	"github.com/kilianp07/depotplan/core/optimizer"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <file.csv>",
	Short: "Run an offline optimization pass over a schedule file",
	Long: `Allocates the CSV schedule, then searches for relocations that admit
waiting vehicles. Proposed moves are printed without touching any
running service.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	records, err := readScheduleCSV(args[0])
	if err != nil {
		return err
	}
	mgr, err := offlineManager(cfg)
	if err != nil {
		return err
	}
	rep := mgr.Import(records)
	for _, e := range rep.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %v\n", e.Row, e.Err)
	}

	res := optimizer.Optimize(mgr.Snapshot(), cfg.Optimizer.Budget)
	if len(res.Modifications) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no improving relocation found (%d waiting)\n", res.WaitingBefore)
		return nil
	}
	for _, mod := range res.Modifications {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s: %s -> %s\n", mod.VehicleName, mod.Depot, mod.From, mod.To)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "waiting %d -> %d", res.WaitingBefore, res.WaitingAfter)
	if res.BudgetExhausted {
		fmt.Fprint(cmd.OutOrStdout(), " (budget exhausted)")
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
