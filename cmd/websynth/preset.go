package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cbegin/websynth-go/internal/logger"
	"github.com/cbegin/websynth-go/internal/preset"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Inspect and migrate preset files",
	Long: `Work with preset files.

Subcommands:
  migrate   Upgrade a preset of any version to the current schema
  defaults  Print the default preset`,
}

var presetMigrateCmd = &cobra.Command{
	Use:   "migrate <file>",
	Short: "Upgrade a preset to the current schema version",
	Long: `Decode a preset of any schema version and print it as the current version.

Fields that are missing, mistyped or invalid fall back to defaults and are
reported on stderr.

Examples:
  websynth preset migrate old.json
  websynth preset migrate old.json -o new.json`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetMigrate,
}

var presetDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default preset",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := preset.Encode(preset.Defaults())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func runPresetMigrate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read preset: %w", err)
	}

	p, err := preset.Decode(data)
	if err != nil {
		var derr *preset.DecodeError
		if !errors.As(err, &derr) || derr.Err != nil {
			return fmt.Errorf("decode %s: %w", args[0], err)
		}
		for _, issue := range derr.Issues {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", issue)
		}
		logger.Info("preset migrated", logger.Fields{
			"from":   derr.Version,
			"to":     preset.CurrentVersion,
			"issues": len(derr.Issues),
		})
	}

	out, err := preset.Encode(p)
	if err != nil {
		return err
	}
	if migrateOutput == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}
	if err := os.WriteFile(migrateOutput, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	return nil
}
