// Command saveconfig is a thin cobra front-end over internal/engine,
// grounded on the cuemby-warren repo's cmd/warren cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KingTimer12/saveme-config/internal/appdir"
	"github.com/KingTimer12/saveme-config/internal/dcontext"
	"github.com/KingTimer12/saveme-config/internal/engine"
)

var storeRootFlag string

var rootCmd = &cobra.Command{
	Use:   "saveconfig",
	Short: "Content-addressed, tamper-evident backups of application configuration",
}

func init() {
	defaultRoot, err := appdir.BaseStorageDir()
	if err != nil {
		defaultRoot = ""
	}
	rootCmd.PersistentFlags().StringVar(&storeRootFlag, "store", defaultRoot, "store root directory")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(listAppsCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(listSnapshotsCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(chainInfoCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

func newEngine() *engine.Engine {
	return engine.New(storeRootFlag)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var listAppsCmd = &cobra.Command{
	Use:   "list-apps",
	Short: "List every registered application adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		for _, info := range e.ListApplications() {
			fmt.Printf("%-20s %-30s installed=%v\n", info.ID, info.Name, info.IsInstalled)
		}
		return nil
	},
}

var saveCmd = &cobra.Command{
	Use:   "save NAME APP_ID...",
	Short: "Save a new snapshot for the given applications",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		ctx := dcontext.Background()
		name, appIDs := args[0], args[1:]
		if err := e.SaveConfig(ctx, name, appIDs); err != nil {
			return err
		}
		fmt.Printf("saved snapshot %s\n", name)
		return nil
	},
}

var listSnapshotsCmd = &cobra.Command{
	Use:   "list-snapshots",
	Short: "List every snapshot in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		snapshots, err := e.ListSnapshots()
		if err != nil {
			return err
		}
		for _, s := range snapshots {
			fmt.Printf("%-30s %s\n", s.Name, s.CreatedAt)
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore NAME APP_ID...",
	Short: "Restore applications from a snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		ctx := dcontext.Background()
		name, appIDs := args[0], args[1:]
		if err := e.RestoreConfig(ctx, name, appIDs); err != nil {
			return err
		}
		fmt.Printf("restored snapshot %s\n", name)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify NAME",
	Short: "Verify a snapshot's integrity and its chain back to genesis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		name := args[0]

		integrityOK, err := e.VerifyBackupIntegrity(name)
		if err != nil {
			return err
		}
		chainOK, err := e.VerifyBackupChain(name)
		if err != nil {
			return err
		}

		fmt.Printf("integrity: %v\n", integrityOK)
		fmt.Printf("chain:     %v\n", chainOK)
		if !integrityOK || !chainOK {
			return fmt.Errorf("snapshot %s failed verification", name)
		}
		return nil
	},
}

var chainInfoCmd = &cobra.Command{
	Use:   "chain-info NAME",
	Short: "Show a snapshot's chain linkage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e := newEngine()
		info, err := e.GetBackupChainInfo(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("name:                %s\n", info.Name)
		fmt.Printf("backup_hash:         %s\n", info.BackupHash)
		fmt.Printf("chain_hash:          %s\n", info.ChainHash)
		if info.PreviousBackupHash != nil {
			fmt.Printf("previous_backup_hash: %s\n", *info.PreviousBackupHash)
		} else {
			fmt.Println("previous_backup_hash: <none>")
		}
		fmt.Printf("integrity_valid:     %v\n", info.IsIntegrityValid)
		return nil
	},
}
