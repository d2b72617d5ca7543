package main

import (
	"os"

	"github.com/rescueroute/fleetsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
