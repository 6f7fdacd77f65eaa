package main

import (
	"os"

	"order-costing-service/cmd/costing/cmd"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.NewErrorHandler().Handle(err))
	}
}
