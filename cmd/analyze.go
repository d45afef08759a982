package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/stepscope/internal/analysis"
)

var (
	analyzeTarget     target
	analyzeOut        string
	analyzePercentile float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Export the step analysis of a sequence as JSON",
	Long: `Load a sequence completely and export its noise trajectory, per-step
pixel and latent change means and critical frames as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, ws, err := openWorkspace()
		if err != nil {
			return err
		}
		id, err := ws.Resolve(analyzeTarget.sequence, analyzeTarget.selection())
		if err != nil {
			return err
		}
		report, err := ws.Report(context.Background(), id, analyzePercentile)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if analyzeOut == "" || analyzeOut == "-" {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(analyzeOut, append(data, '\n'), 0644); err != nil {
			return err
		}
		fmt.Printf("Report for %s written to %s (%d critical frames)\n", id, analyzeOut, len(report.CriticalFrames))
		return nil
	},
}

func init() {
	analyzeTarget.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "output file, stdout when empty")
	analyzeCmd.Flags().Float64Var(&analyzePercentile, "percentile", analysis.DefaultCriticalPercentile, "critical step percentile")
	rootCmd.AddCommand(analyzeCmd)
}
