package main

import (
	"fmt"
	"os"

	"github.com/libersoft-org/smart-contracts/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
