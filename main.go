package main

import (
	"os"

	"github.com/tsinghua-fib-lab/traffic-sensor-sim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
