package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"codeberg.org/mutker/daikinctl/internal/appliance"
	"codeberg.org/mutker/daikinctl/internal/logger"
	"github.com/spf13/cobra"
)

var showValues bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Refresh the appliance once and print its state",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showValues, "values", false, "also print every raw field")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	dev, err := newAppliance(ctx, logger.Default())
	if err != nil {
		return err
	}
	if err := dev.Update(ctx); err != nil {
		return err
	}

	printAppliance(os.Stdout, dev)
	if showValues {
		printValues(os.Stdout, dev.Values())
	}
	return nil
}

func printAppliance(w io.Writer, dev *appliance.Appliance) {
	r := dev.Readings()

	mac, ok := dev.MAC()
	if !ok {
		mac = "-"
	}
	name, ok := dev.Value("name")
	if !ok {
		name = "-"
	}

	fmt.Fprintf(w, "%-22s %s\n", "Device", r.Device)
	fmt.Fprintf(w, "%-22s %s\n", "Name", name)
	fmt.Fprintf(w, "%-22s %s\n", "MAC", mac)
	fmt.Fprintf(w, "%-22s %s\n", "Inside temperature", formatReading(r.InsideTemperature, "°C"))
	fmt.Fprintf(w, "%-22s %s\n", "Outside temperature", formatReading(r.OutsideTemperature, "°C"))
	fmt.Fprintf(w, "%-22s %s\n", "Target temperature", formatReading(r.TargetTemperature, "°C"))

	if !dev.SupportsEnergyConsumption() {
		fmt.Fprintf(w, "%-22s %s\n", "Energy", "not supported")
	} else {
		for _, cat := range appliance.Categories {
			e := r.Energy[cat]
			fmt.Fprintf(w, "%-22s %s today, %s yesterday\n", cat.String()+" energy",
				formatReading(e.Today, "kWh"), formatReading(e.Yesterday, "kWh"))
		}
		fmt.Fprintf(w, "%-22s %s\n", "Total power", formatReading(r.TotalPower, "kW"))
		fmt.Fprintf(w, "%-22s %s\n", "Cool power (last hour)", formatReading(r.CoolPower, "kWh"))
		fmt.Fprintf(w, "%-22s %s\n", "Heat power (last hour)", formatReading(r.HeatPower, "kWh"))
	}

	fmt.Fprintf(w, "%-22s away=%t fan_rate=%t swing=%t\n", "Features",
		dev.SupportsAwayMode(), dev.SupportsFanRate(), dev.SupportsSwingMode())
}

func printValues(w io.Writer, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	fmt.Fprintln(w)
	for _, k := range keys {
		fmt.Fprintf(w, "%-22s %s\n", k, values[k])
	}
}

func formatReading(r appliance.Reading, unit string) string {
	if !r.Valid {
		return "-"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64) + " " + unit
}
