// Command bankdw builds the bank reviews dimensional warehouse.
package main

import (
	"fmt"
	"os"

	"github.com/datamaghreb/bankdw/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
