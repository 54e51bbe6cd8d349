// Package main provides the entry point for the job-ad manager HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adserver",
	Short: "Job advertisement manager API server",
	Long:  "adserver manages per-tenant company and job profiles and generates job-advertisement text on demand through an external language model, selling generation credits via a payment provider.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
