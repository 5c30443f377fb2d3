package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openmined/adaptivebackup/internal/cliconfig"
	"github.com/openmined/adaptivebackup/internal/logging"
	"github.com/openmined/adaptivebackup/internal/transfer"
	"github.com/openmined/adaptivebackup/internal/version"
	"github.com/openmined/adaptivebackup/pkg/adaptivebackup"
)

const defaultSimultaneous = 9
const authorizationURL = "https://auth.openmined.org/authorize"

var home, _ = os.UserHomeDir()

var rootCmd = &cobra.Command{
	Use:     "adaptivebackup-backup",
	Short:   "Streams a remote datasite tree to a local backup directory",
	Version: version.Detailed(),
	RunE:    runBackup,
}

func init() {
	rootCmd.Flags().SortFlags = false
	cliconfig.BindFlags(rootCmd, defaultSimultaneous, false)
}

func main() {
	logFile := filepath.Join(home, ".adaptivebackup", "backup.log")
	cleanup, err := logging.Setup(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adaptivebackup-backup: %v\n", err)
		os.Exit(transfer.ExitAuthAborted)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("backup failed", "error", err)
		os.Exit(transfer.ExitAuthAborted)
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load()
	if err != nil {
		return err
	}

	cliconfig.PrintBanner("AdaptiveBackup — backup")

	ctx := cmd.Context()
	backup, err := adaptivebackup.NewBackup(ctx, adaptivebackup.Options{
		BackupDir:        cfg.BackupDir,
		UserAddress:      cfg.UserAddress,
		Token:            cfg.Token,
		Category:         cfg.Category,
		IncludePublic:    cfg.IncludePublic,
		Simultaneous:     cfg.Simultaneous,
		AuthorizationURL: authorizationURL,
	})
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true
	os.Exit(backup.Start(ctx))
	return nil
}
