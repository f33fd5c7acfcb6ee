package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set by the release build; a plain literal during development.
const version = "0.1.0-dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mimasd " + version)
		},
	}
}
