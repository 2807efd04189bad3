package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "grana",
	Short: "Personal finance server with credit card billing and installments",
	Long: `Grana is a self-hosted personal finance server.

It tracks income and expenses, manages credit and prepaid cards,
splits purchases into installments across monthly invoices, and
reconciles invoices against prepaid card balances at closing.

Quick start:
  grana migrate     # Create or update the database schema
  grana serve       # Start the HTTP API server

Management:
  grana users       # Manage user accounts
  grana version     # Print version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "grana.yaml", "config file path")
}
