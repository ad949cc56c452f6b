package main

import (
	"fmt"
	"os"

	"clinic_marketing_backend/cmd/marketingctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
