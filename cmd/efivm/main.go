package main

import (
	"os"

	"github.com/faize-ai/efivm/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
