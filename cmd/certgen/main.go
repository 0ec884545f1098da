// Package main provides the entry point for the certgen CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "certgen",
	Short: "Batch certificate generator",
	Long:  "certgen renders a PDF certificate for every pending row of a shared roster spreadsheet, files each one into its company's folder in the remote drive, and marks the row done so reruns only pick up new work.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
