package main

import (
	"os"

	fleetcredcmd "github.com/telekom/k8s-fleetcred/pkg/fleetcred/cmd"
)

func run(args []string) int {
	root := fleetcredcmd.NewRootCommand(fleetcredcmd.DefaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:]))
}
