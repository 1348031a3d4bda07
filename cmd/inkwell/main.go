package main

import (
	"os"

	"github.com/inkwell-ai/inkwell/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
