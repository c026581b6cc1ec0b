package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/autocoding/internal/cli"
	"github.com/ppiankov/autocoding/internal/internalerr"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		if internalerr.IsConfiguration(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
