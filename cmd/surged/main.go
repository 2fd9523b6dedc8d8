package main

import (
	"os"

	"github.com/surgeswap/surge/cmd/surged/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
