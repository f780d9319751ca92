package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixdelbarrio/bug-resolution-radar/internal/config"
	"github.com/felixdelbarrio/bug-resolution-radar/internal/paths"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage radar configuration",
	Long:  "View and manage radar configuration stored in .radar/config.json",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, the config file and RADAR_*
environment overrides have been applied.

Examples:
  radar config show
  RADAR_TOP_N=6 radar config show --format yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Args:  cobra.NoArgs,
	RunE:  runConfigEnv,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath,omitempty"`
	UsedDefaults bool                 `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty"`
	Config       *config.Config       `json:"config"`
}

func workspaceRoot() (string, error) {
	if rootFlag != "" {
		return rootFlag, nil
	}
	return os.Getwd()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	path := paths.ConfigPath(filepath.Join(root, paths.DefaultDataDir))
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return err
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}
	result, err := config.LoadConfigWithDetails(root)
	if err != nil {
		return err
	}
	if err := result.Config.Validate(); err != nil {
		return config.AsRadarError(err)
	}

	format := OutputFormat(formatFlag)
	if format == FormatHuman {
		format = FormatJSON
	}
	out, err := FormatResponse(&ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       result.Config,
	}, format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

func runConfigEnv(cmd *cobra.Command, args []string) error {
	var b strings.Builder
	b.WriteString("Supported environment variables:\n")
	for _, v := range append([]string{config.EnvConfigPath}, config.GetSupportedEnvVars()...) {
		mark := " "
		if os.Getenv(v) != "" {
			mark = "*"
		}
		b.WriteString(fmt.Sprintf(" %s %s\n", mark, v))
	}
	b.WriteString("\n(* = currently set)")
	_, err := fmt.Fprintln(cmd.OutOrStdout(), b.String())
	return err
}
