// Command registryd runs a single node of the service registry.
package main

import (
	"fmt"
	"os"

	"github.com/clusterreg/clusterreg/cmd/registryd/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "there was an error: %v\n", err)
		os.Exit(1)
	}
}
