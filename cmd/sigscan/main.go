package main

import (
	"os"

	"github.com/sprite-ai/sigscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
