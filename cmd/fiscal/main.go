package main

import (
	"os"

	"github.com/walisonlf/fiscal/cmd/fiscal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
