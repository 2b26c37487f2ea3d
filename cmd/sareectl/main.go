package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/saree-crm/saree-crm/cmd/sareectl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
