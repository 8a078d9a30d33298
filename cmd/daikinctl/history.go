package main

import (
	"fmt"
	"io"
	"os"

	"codeberg.org/mutker/daikinctl/internal/metrics"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List readings recorded by the monitor",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of rows to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	db, err := metrics.OpenReader(cfg.MetricsDB)
	if err != nil {
		return fmt.Errorf("opening metrics database: %w", err)
	}
	defer db.Close()

	rows, err := db.Recent(cfg.Device, historyLimit)
	if err != nil {
		return fmt.Errorf("listing readings for %s: %w", cfg.Device, err)
	}

	printHistory(os.Stdout, cfg.Device, rows)
	return nil
}

func printHistory(w io.Writer, device string, rows []metrics.Snapshot) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No readings found for %s\n", device)
		return
	}

	fmt.Fprintf(w, "%-20s  %8s  %8s  %10s  %10s\n", "Time", "Inside", "Outside", "Total kWh", "Power kW")
	fmt.Fprintln(w, "--------------------------------------------------------------")
	for _, s := range rows {
		fmt.Fprintf(w, "%-20s  %8s  %8s  %10s  %10s\n",
			s.Timestamp.Local().Format("2006-01-02 15:04:05"),
			formatCell(s.Temperature.Inside.Value, s.Temperature.Inside.Valid),
			formatCell(s.Temperature.Outside.Value, s.Temperature.Outside.Valid),
			formatCell(s.Energy.Total.Today.Value, s.Energy.Total.Today.Valid),
			formatCell(s.Power.Total.Value, s.Power.Total.Valid),
		)
	}
}

func formatCell(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
