package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/examples/lib/dev"
	"github.com/pion/logging"
	"github.com/spf13/cobra"

	"github.com/backkem/nuki/pkg/client"
	"github.com/backkem/nuki/pkg/lock"
	"github.com/backkem/nuki/pkg/store"
	"github.com/backkem/nuki/pkg/transport/goble"
)

var (
	clientName string
	appID      uint32
	storeDir   string
	verbose    bool
	pairWait   time.Duration
)

func init() {
	home, _ := os.UserHomeDir()
	rootCmd.PersistentFlags().StringVar(&clientName, "name", "nukictl", "Client name presented to the lock (max 32 bytes)")
	rootCmd.PersistentFlags().Uint32Var(&appID, "app-id", 0x4E554B49, "Application id presented to the lock")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", filepath.Join(home, ".nukictl"), "Credential store directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	pairCmd.Flags().DurationVar(&pairWait, "wait", 60*time.Second, "How long to wait for a lock in pairing mode")
}

func loggerFactory() logging.LoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	if verbose {
		factory.DefaultLogLevel = logging.LogLevelDebug
	} else {
		factory.DefaultLogLevel = logging.LogLevelWarn
	}
	return factory
}

// setupLock initializes the BLE device, store and lock client.
func setupLock(withScanner bool) (*lock.Lock, *goble.Scanner, error) {
	device, err := dev.DefaultDevice()
	if err != nil {
		return nil, nil, fmt.Errorf("open BLE device: %w", err)
	}
	ble.SetDefaultDevice(device)

	provider, err := store.NewFileProvider(storeDir)
	if err != nil {
		return nil, nil, err
	}
	s, err := provider.Open("smartlock")
	if err != nil {
		return nil, nil, err
	}

	factory := loggerFactory()
	transportClient := goble.New(goble.Config{LoggerFactory: factory})

	var scanner *goble.Scanner
	config := client.Config{
		Name:          clientName,
		AppID:         appID,
		Transport:     transportClient,
		Store:         s,
		LoggerFactory: factory,
		// Without a co-located beacon feed nothing refreshes the
		// heartbeat between commands, so the heartbeat guard would fail
		// commands once the device has been quiet for longer than the
		// heartbeat timeout.
		AltConnect: !withScanner,
	}
	if withScanner {
		scanner = goble.NewScanner(goble.Config{LoggerFactory: factory})
		config.Scanner = scanner
	}

	l, err := lock.New(config)
	if err != nil {
		return nil, nil, err
	}
	return l, scanner, nil
}

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pair with a lock in pairing mode",
	Long: `Scan for a lock advertising its pairing service and run the pairing
handshake. Put the lock into pairing mode first by pressing its button
for five seconds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, scanner, err := setupLock(true)
		if err != nil {
			return err
		}
		defer l.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			if err := scanner.Start(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "scan error: %v\n", err)
			}
		}()
		defer scanner.Stop()

		fmt.Println("Waiting for a lock in pairing mode...")
		deadline := time.Now().Add(pairWait)
		for time.Now().Before(deadline) {
			switch l.Pair(client.IDTypeBridge) {
			case client.PairingSuccess:
				fmt.Printf("Paired with %s\n", l.Address())
				return nil
			case client.PairingTimeout:
				return fmt.Errorf("pairing handshake timed out")
			case client.PairingInProgress:
				time.Sleep(500 * time.Millisecond)
			}
		}
		return fmt.Errorf("no lock in pairing mode found within %v", pairWait)
	},
}

var unpairCmd = &cobra.Command{
	Use:   "unpair",
	Short: "Delete the stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := setupLock(false)
		if err != nil {
			return err
		}
		defer l.Close()
		if err := l.Unpair(); err != nil {
			return err
		}
		fmt.Println("Credentials deleted")
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Read the keyturner state",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := setupLock(false)
		if err != nil {
			return err
		}
		defer l.Close()

		state, result := l.RequestKeyTurnerState()
		if result != client.CmdResultSuccess {
			return fmt.Errorf("state request failed: %v", result)
		}
		fmt.Printf("Lock state:   %v\n", state.LockState)
		fmt.Printf("Trigger:      %v\n", state.Trigger)
		fmt.Printf("Door sensor:  %v\n", state.DoorSensorState)
		fmt.Printf("Battery:      %d%%", state.BatteryPercent())
		if state.BatteryCritical() {
			fmt.Printf(" (critical)")
		}
		fmt.Println()
		return nil
	},
}

func lockActionCommand(use, short string, action lock.Action) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, _, err := setupLock(false)
			if err != nil {
				return err
			}
			defer l.Close()

			result := l.LockAction(action, appID, 0, clientName)
			switch result {
			case client.CmdResultSuccess:
				fmt.Printf("%s: done\n", short)
				return nil
			case client.CmdResultLockBusy:
				return fmt.Errorf("lock is busy, try again")
			default:
				return fmt.Errorf("%s failed: %v", use, result)
			}
		},
	}
}

var lockCmd = lockActionCommand("lock", "Lock the door", lock.ActionLock)
var unlockCmd = lockActionCommand("unlock", "Unlock the door", lock.ActionUnlock)
var unlatchCmd = lockActionCommand("unlatch", "Unlock and pull the latch", lock.ActionUnlatch)

var batteryCmd = &cobra.Command{
	Use:   "battery",
	Short: "Read the battery report",
	RunE: func(cmd *cobra.Command, args []string) error {
		l, _, err := setupLock(false)
		if err != nil {
			return err
		}
		defer l.Close()

		report, result := l.RequestBatteryReport()
		if result != client.CmdResultSuccess {
			return fmt.Errorf("battery request failed: %v", result)
		}
		fmt.Printf("Voltage:      %d mV\n", report.BatteryVoltage)
		fmt.Printf("Drain:        %d mWs\n", report.BatteryDrain)
		fmt.Printf("Max current:  %d mA\n", report.MaxTurnCurrent)
		fmt.Printf("Temperature:  %d C\n", report.StartTemperature)
		return nil
	},
}
