package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/task"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Build and save the catalogs without streaming events",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		t := task.NewContext(c)
		if err := t.Build(); err != nil {
			return err
		}
		if err := t.Save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			printSamples(out, t)
		}
		success(out, "Catalogs saved to %s (seed %d)", c.Output.Dir, t.Seed())
		return nil
	},
}

func init() {
	catalogCmd.Flags().BoolP("quiet", "q", false, "do not print catalog samples")
}
