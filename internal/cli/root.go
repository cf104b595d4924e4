// Package cli wires the quotedeck commands.
package cli

import (
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "quotedeck",
	Short: "Client-side quote browser with offline-resilient favorites",
	Long: "quotedeck browses quotes from a hosted backend (or a local mock dataset),\n" +
		"and keeps per-user favorites correct across remote outages by falling back\n" +
		"to local storage and reconciling on reconnect.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (yaml)")
}
