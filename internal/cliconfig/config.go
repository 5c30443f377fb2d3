// Package cliconfig is the shared CLI flag/config surface for both the
// backup and restore commands: the flag set defined in the external
// interfaces section, bound through viper so each flag can also be set by an
// ADAPTIVEBACKUP_-prefixed environment variable. No config file is read or
// written.
package cliconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmined/adaptivebackup/internal/utils"
)

// Config is the resolved set of options both backup and restore read from,
// after flags/env have been merged by viper.
type Config struct {
	BackupDir     string
	UserAddress   string
	Token         string
	Category      string
	IncludePublic bool
	Simultaneous  int
	EtagAlgorithm string // restore only
}

// BindFlags registers the shared flag set on cmd. restoreFlags additionally
// registers --etag-algorithm, since that flag is restore-only.
func BindFlags(cmd *cobra.Command, defaultSimultaneous int, restoreFlags bool) {
	cmd.Flags().StringP("backup-dir", "o", "", "local backup root (required)")
	cmd.Flags().StringP("user-address", "u", "", "user address, e.g. alice@host")
	cmd.Flags().StringP("token", "t", "", "bearer token; omit to trigger interactive login")
	cmd.Flags().StringP("category", "c", "", "single top-level category; empty means whole tree")
	cmd.Flags().BoolP("include-public", "p", false, "also process /public/<category>/")
	cmd.Flags().IntP("simultaneous", "s", defaultSimultaneous, "concurrency cap")

	_ = cmd.MarkFlagRequired("backup-dir")

	if restoreFlags {
		cmd.Flags().String("etag-algorithm", "md5", "digest algorithm for conditional uploads")
	}

	_ = viper.BindPFlag("backup_dir", cmd.Flags().Lookup("backup-dir"))
	_ = viper.BindPFlag("user_address", cmd.Flags().Lookup("user-address"))
	_ = viper.BindPFlag("token", cmd.Flags().Lookup("token"))
	_ = viper.BindPFlag("category", cmd.Flags().Lookup("category"))
	_ = viper.BindPFlag("include_public", cmd.Flags().Lookup("include-public"))
	_ = viper.BindPFlag("simultaneous", cmd.Flags().Lookup("simultaneous"))
	if restoreFlags {
		_ = viper.BindPFlag("etag_algorithm", cmd.Flags().Lookup("etag-algorithm"))
	}

	viper.SetEnvPrefix("ADAPTIVEBACKUP")
	viper.AutomaticEnv()
}

// Load reads back the bound values into a Config and validates required
// fields.
func Load() (*Config, error) {
	cfg := &Config{
		BackupDir:     viper.GetString("backup_dir"),
		UserAddress:   viper.GetString("user_address"),
		Token:         viper.GetString("token"),
		Category:      strings.Trim(viper.GetString("category"), "/"),
		IncludePublic: viper.GetBool("include_public"),
		Simultaneous:  viper.GetInt("simultaneous"),
		EtagAlgorithm: viper.GetString("etag_algorithm"),
	}

	if cfg.BackupDir == "" {
		return nil, errors.New("cliconfig: --backup-dir is required")
	}
	resolved, err := utils.ResolvePath(cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("cliconfig: --backup-dir: %w", err)
	}
	cfg.BackupDir = resolved

	if cfg.Simultaneous <= 0 {
		return nil, fmt.Errorf("cliconfig: --simultaneous must be positive, got %d", cfg.Simultaneous)
	}

	if cfg.UserAddress != "" {
		if err := utils.ValidateEmail(cfg.UserAddress); err != nil {
			return nil, fmt.Errorf("cliconfig: --user-address: %w", err)
		}
	}

	if cfg.Token != "" {
		slog.Debug("loaded bearer token from flag/env", "token", utils.MaskSecret(cfg.Token))
	}

	return cfg, nil
}

// PrintBanner prints a colorized one-line startup banner naming the running
// command, mirroring the client CLI's startup header treatment.
func PrintBanner(label string) {
	color.New(color.FgHiCyan, color.Bold).Printf("» %s\n", label)
}
