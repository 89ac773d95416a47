package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/output"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/task"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/config"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/input"
	"github.com/tsinghua-fib-lab/traffic-sensor-sim/utils/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the catalogs and stream sensor events",
	Long: `Build (or reload with --reuse) the location, sensor and vehicle catalogs,
then stream detection events to the event log and configured publishers.
With --resume the saved catalogs are always reloaded, never rebuilt.

The operator is asked before building and before streaming unless --yes
is given. Ctrl-C stops the stream after the current event.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		applyStreamFlags(cmd.Flags(), &c)
		if err := c.Validate(); err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		reuse, _ := cmd.Flags().GetBool("reuse")
		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		t := task.NewContext(c)
		// 续跑的事件引用上次运行的目录，不能重新生成
		if reuse || c.Stream.Resume {
			saved, err := input.LoadCatalogs(c.Output)
			if err != nil {
				if c.Stream.Resume {
					return fmt.Errorf("resume needs the catalogs saved by the previous run in %s: %w", c.Output.Dir, err)
				}
				return err
			}
			t.Load(saved)
			success(out, "Reloaded catalogs from %s", c.Output.Dir)
		} else {
			if !yes {
				ok, err := confirm(in, out, "Build the location, sensor and vehicle catalogs?")
				if err != nil || !ok {
					warn(out, "Aborted")
					return err
				}
			}
			if err := t.Build(); err != nil {
				return err
			}
			if err := t.Save(); err != nil {
				return err
			}
			printSamples(out, t)
			success(out, "Catalogs saved to %s (seed %d)", c.Output.Dir, t.Seed())
		}

		if !yes {
			ok, err := confirm(in, out, "Start streaming events to "+c.Output.EventsPath()+"?")
			if err != nil || !ok {
				warn(out, "Aborted")
				return err
			}
		}

		stop, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		pubs, err := output.OpenPublishers(stop, c.Publish)
		if err != nil {
			return err
		}
		t.AddPublishers(pubs...)
		if c.Metrics.Listen != "" {
			go func() {
				if err := metrics.Serve(stop, c.Metrics.Listen); err != nil {
					log.Errorf("metrics server: %v", err)
				}
			}()
		}

		info(out, "Streaming, press Ctrl-C to stop")
		res, err := t.Run(stop)
		if err != nil {
			return err
		}
		success(out, "%v", res)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	runCmd.Flags().Bool("reuse", false, "reload previously saved catalogs instead of building new ones (implied by --resume)")
	addStreamFlags(runCmd.Flags())
}

// addStreamFlags 注册覆盖stream配置的参数
func addStreamFlags(fs *pflag.FlagSet) {
	fs.Bool("resume", false, "continue the event log after its last event id")
	fs.Int64("total", 0, "number of events to emit in this run (<=0 means unbounded)")
	fs.Duration("interval", 0, "pause between events")
	fs.String("speed-model", "", "speed model version: v1 or v2")
}

// applyStreamFlags 只覆盖命令行中显式给出的参数
func applyStreamFlags(fs *pflag.FlagSet, c *config.Config) {
	if fs.Changed("resume") {
		c.Stream.Resume, _ = fs.GetBool("resume")
	}
	if fs.Changed("total") {
		c.Stream.TotalEvents, _ = fs.GetInt64("total")
	}
	if fs.Changed("interval") {
		c.Stream.Interval, _ = fs.GetDuration("interval")
	}
	if fs.Changed("speed-model") {
		c.Stream.SpeedModel, _ = fs.GetString("speed-model")
	}
}
