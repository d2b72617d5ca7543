package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rescueroute/fleetsim/pkg/export"
	"github.com/rescueroute/fleetsim/qa/scenarios"
)

var reportPath string

var scenarioCmd = &cobra.Command{
	Use:   "scenario <file.yaml>",
	Short: "Run a YAML scenario headless and check its expectations",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	scenarioCmd.Flags().StringVar(&reportPath, "report", "", "write a completed-mission report (.json or .csv)")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(args[0])
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	res, err := scenarios.Run(sc)
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := writeReport(reportPath, res); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if !res.Passed() {
		for _, f := range res.Failures {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %s\n", sc.Name, f)
		}
		return fmt.Errorf("scenario %s: %d expectation(s) failed", sc.Name, len(res.Failures))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "PASS %s: %d ticks, %d missions completed\n",
		sc.Name, res.Final.Tick, res.Final.CompletedTotal)
	return nil
}

func writeReport(path string, res scenarios.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries := export.Report(res.Final, 1.0)
	if filepath.Ext(path) == ".csv" {
		return export.WriteCSV(f, entries)
	}
	return export.WriteJSON(f, entries)
}
