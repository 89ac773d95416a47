package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
)

var lastEventIDCmd = &cobra.Command{
	Use:   "last-event-id [events-file]",
	Short: "Print the last event id recorded in an event log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			path = c.Output.EventsPath()
		}
		id, err := input.RecoverLastEventID(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}
