package main

import (
	"os"

	"github.com/hcostelha/scribe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
