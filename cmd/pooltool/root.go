package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pooltool",
	Short: "Inspect and exercise the address-space pool manager",
	Long: `pooltool reports the virtual-memory capabilities the pool manager will
use on this machine (page sizes, sealing, write-protection mode) and can run
a synthetic reserve/unreserve workload against a throwaway pool.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
