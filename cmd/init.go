package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/twiced-technology-gmbh/checkboard/internal/config"
	"github.com/twiced-technology-gmbh/checkboard/internal/output"
	"github.com/twiced-technology-gmbh/checkboard/internal/session"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize checkboard in a vault",
	Long: `Creates .checkboard/settings.yml in the vault (the current directory unless
--vault is given) with one default board, then scans the vault once.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("name", "", "name of the first board")
	initCmd.Flags().StringSlice("include", nil, "only scan these vault-relative folders")
	initCmd.Flags().StringSlice("exclude", nil, "never scan these vault-relative folders")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	vault := viper.GetString("vault")
	if vault == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		vault = cwd
	}
	absVault, err := filepath.Abs(vault)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	settingsPath := viper.GetString("settings")
	if settingsPath == "" {
		settingsPath = config.DefaultPath(absVault)
	}
	settings, err := config.Init(settingsPath)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	if name != "" || len(include) > 0 || len(exclude) > 0 {
		if name != "" {
			settings.Boards[0].Name = name
		}
		settings.Folders = config.Folders{Include: include, Exclude: exclude}
		if err := settings.Validate(); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return err
		}
	}

	sess, err := session.Open(session.Options{Vault: absVault, SettingsPath: settingsPath, Logger: logger})
	if err != nil {
		return err
	}
	defer sess.Close()
	logActivity(sess, "init", settings.ActiveBoard, "", absVault)

	w := cmd.OutOrStdout()
	if outputFormat() == output.FormatJSON {
		return output.JSON(w, map[string]any{
			"status":   "initialized",
			"vault":    absVault,
			"settings": settings.Path(),
			"board":    settings.Boards[0].Name,
			"tasks":    sess.Tasks.Len(),
		})
	}

	output.Messagef(w, "Initialized checkboard in %s", absVault)
	output.Messagef(w, "  Settings: %s", settings.Path())
	output.Messagef(w, "  Board:    %s", settings.Boards[0].Name)
	output.Messagef(w, "  Tasks:    %d found", sess.Tasks.Len())
	return nil
}
