package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/depotplan/config"
	"github.com/kilianp07/depotplan/core/alloc"
	"github.com/kilianp07/depotplan/core/registry"
	"github.com/kilianp07/depotplan/infra/logger"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Validate a vehicle schedule file against the depot catalog",
	Long: `Reads a CSV schedule and runs it through the allocator offline.
Each row is reported as placed, waiting or rejected. The live service
is not touched; use the /import endpoint for that.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
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
	for _, st := range rep.Imported {
		if st.Status == alloc.StatusPlaced {
			fmt.Fprintf(cmd.OutOrStdout(), "placed  %-20s %s track %d\n", st.Vehicle.Name, st.Vehicle.Depot, st.Track)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "waiting %-20s %s\n", st.Vehicle.Name, st.Vehicle.Depot)
		}
	}
	for _, e := range rep.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "row %d: %v\n", e.Row, e.Err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d imported, %d rejected\n", len(rep.Imported), len(rep.Errors))
	if len(rep.Errors) > 0 {
		return fmt.Errorf("%d rows rejected", len(rep.Errors))
	}
	return nil
}

func offlineManager(cfg *config.Config) (*alloc.Manager, error) {
	reg, err := registry.New(config.Depots(cfg.Depots))
	if err != nil {
		return nil, fmt.Errorf("depot registry: %w", err)
	}
	return alloc.NewManager(reg, logger.NopLogger{})
}

// readScheduleCSV parses rows of the form
// name,wagons,locomotives,length_m,electric,depot,arrival,departure,category,locomotive_side
// with an optional header line. Timestamps are RFC 3339.
func readScheduleCSV(path string) ([]alloc.VehicleInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []alloc.VehicleInput
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line++
		if line == 1 && rec[0] == "name" {
			continue
		}
		if len(rec) < 8 {
			return nil, fmt.Errorf("%s line %d: expected at least 8 fields, got %d", path, line, len(rec))
		}
		in := alloc.VehicleInput{Name: rec[0], Depot: rec[5]}
		if in.Wagons, err = atoiOrZero(rec[1]); err != nil {
			return nil, fmt.Errorf("%s line %d: wagons: %w", path, line, err)
		}
		if in.Locomotives, err = atoiOrZero(rec[2]); err != nil {
			return nil, fmt.Errorf("%s line %d: locomotives: %w", path, line, err)
		}
		if rec[3] != "" {
			if in.LengthM, err = strconv.ParseFloat(rec[3], 64); err != nil {
				return nil, fmt.Errorf("%s line %d: length_m: %w", path, line, err)
			}
		}
		if rec[4] != "" {
			if in.Electric, err = strconv.ParseBool(rec[4]); err != nil {
				return nil, fmt.Errorf("%s line %d: electric: %w", path, line, err)
			}
		}
		if in.Arrival, err = time.Parse(time.RFC3339, rec[6]); err != nil {
			return nil, fmt.Errorf("%s line %d: arrival: %w", path, line, err)
		}
		if in.Departure, err = time.Parse(time.RFC3339, rec[7]); err != nil {
			return nil, fmt.Errorf("%s line %d: departure: %w", path, line, err)
		}
		if len(rec) > 8 {
			in.Category = rec[8]
		}
		if len(rec) > 9 {
			in.LocomotiveSide = rec[9]
		}
		out = append(out, in)
	}
	return out, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
