// Nukictl drives a Nuki Smart Lock over BLE: pairing, lock actions, state
// and battery queries. Credentials persist in a small YAML store, so one
// pairing survives across invocations.
//
// Usage:
//
//	nukictl [command] [flags]
//
// See 'nukictl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nukictl",
	Short: "Nuki Smart Lock BLE client",
	Long: `A command line client for Nuki Smart Lock devices over Bluetooth
Low Energy: pairing, lock actions, state and battery queries.

Pair once with the lock in pairing mode (press the button for five
seconds), then drive it with the lock, unlock and state commands.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(unpairCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(unlatchCmd)
	rootCmd.AddCommand(batteryCmd)
}
