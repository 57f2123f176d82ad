package main

import (
	"os"

	"github.com/Ergy12/caldeco/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
