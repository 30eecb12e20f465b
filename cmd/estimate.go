package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chargeq/chargeq/core/charging"
	"github.com/chargeq/chargeq/infra/profile"
)

var (
	estModel  string
	estYear   int
	estTrim   string
	estStart  float64
	estTarget float64
	estTempF  float64
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate a charge duration without talking to the service",
	RunE:  runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&estModel, "model", "", "vehicle model, e.g. \"Model 3\"")
	estimateCmd.Flags().IntVar(&estYear, "year", 0, "vehicle model year")
	estimateCmd.Flags().StringVar(&estTrim, "trim", "", "vehicle trim, e.g. \"Long Range\"")
	estimateCmd.Flags().Float64Var(&estStart, "from", 20, "start percent")
	estimateCmd.Flags().Float64Var(&estTarget, "to", 80, "target percent")
	estimateCmd.Flags().Float64Var(&estTempF, "temp", charging.DefaultAmbientF, "ambient temperature in Fahrenheit")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	est := charging.NewEstimator()
	out := cmd.OutOrStdout()

	prof, known := profile.NewCatalog().Find(estModel, estYear, estTrim)
	var profPtr = &prof
	if !known {
		profPtr = nil
		if estModel != "" {
			fmt.Fprintf(out, "unknown vehicle %q, using the fallback curve\n", estModel)
		}
	} else {
		fmt.Fprintf(out, "%s %s (%.0f kWh)\n", prof.Model, prof.Trim, prof.BatteryKWh)
	}

	minutes := est.DurationMinutes(profPtr, estStart, estTarget, estTempF)
	insights := est.InsightsFor(estStart, estTarget, estTempF)
	fmt.Fprintf(out, "%.0f%% -> %.0f%% at %.0fF: %s\n", estStart, estTarget, estTempF, charging.FormatMinutes(minutes))
	fmt.Fprintf(out, "rate %.2f %%/h, temperature %s, efficiency %s\n",
		insights.AverageRate, insights.TemperatureImpact, insights.Efficiency)
	return nil
}
