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

const defaultSimultaneous = 10
const authorizationURL = "https://auth.openmined.org/authorize"

var home, _ = os.UserHomeDir()

var rootCmd = &cobra.Command{
	Use:     "adaptivebackup-restore",
	Short:   "Replays a local backup directory back onto a remote datasite",
	Version: version.Detailed(),
	RunE:    runRestore,
}

func init() {
	rootCmd.Flags().SortFlags = false
	cliconfig.BindFlags(rootCmd, defaultSimultaneous, true)
}

func main() {
	logFile := filepath.Join(home, ".adaptivebackup", "restore.log")
	cleanup, err := logging.Setup(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "adaptivebackup-restore: %v\n", err)
		os.Exit(transfer.ExitAuthAborted)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("restore failed", "error", err)
		os.Exit(transfer.ExitAuthAborted)
	}
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := cliconfig.Load()
	if err != nil {
		return err
	}

	cliconfig.PrintBanner("AdaptiveBackup — restore")

	ctx := cmd.Context()
	restore, err := adaptivebackup.NewRestore(ctx, adaptivebackup.Options{
		BackupDir:        cfg.BackupDir,
		UserAddress:      cfg.UserAddress,
		Token:            cfg.Token,
		Category:         cfg.Category,
		IncludePublic:    cfg.IncludePublic,
		Simultaneous:     cfg.Simultaneous,
		EtagAlgorithm:    cfg.EtagAlgorithm,
		AuthorizationURL: authorizationURL,
	})
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true
	exitCode, err := restore.Start(ctx)
	if err != nil {
		return err
	}
	os.Exit(exitCode)
	return nil
}
