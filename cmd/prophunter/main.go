package main

import (
	"os"
	_ "time/tzdata"

	"github.com/rustyeddy/prophunter/cmd/prophunter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
