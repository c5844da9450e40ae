package main

import (
	"fmt"
	"os"

	"github.com/autobrr/relink/cmd"
)

func main() {
	rootCmd := cmd.RootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
