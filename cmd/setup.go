package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/llm"
	"github.com/josephgoksu/azubihub/internal/telemetry"
	"github.com/josephgoksu/azubihub/internal/ui"
)

// runSetupForm is replaced in tests.
var runSetupForm = ui.RunSetup

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store your name, e-mail and AI key",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		path := viper.ConfigFileUsed()
		if path == "" {
			if path, err = config.DefaultConfigPath(); err != nil {
				return err
			}
		}

		consent, err := telemetry.Load(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		values := &ui.SetupValues{
			Name:      cfg.User.Name,
			Email:     cfg.User.Email,
			Provider:  viper.GetString("llm.provider"),
			Telemetry: consent.IsEnabled(),
		}
		if err := runSetupForm(values); err != nil {
			return err
		}

		if err := config.WriteDefaultConfig(path, false); err != nil && !errors.Is(err, config.ErrConfigExists) {
			return err
		}
		if err := config.SaveUser(path, strings.TrimSpace(values.Email), strings.TrimSpace(values.Name)); err != nil {
			return err
		}
		provider := values.Provider
		if err := config.SaveLLMConfig(path, provider, llm.DefaultModelForProvider(provider), strings.TrimSpace(values.APIKey)); err != nil {
			return err
		}

		if values.Telemetry {
			consent.Enable()
		} else {
			consent.Disable()
		}
		if err := consent.Save(cfg.Storage.DataDir); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Saved to %s\n", ui.StylePrefixDone.Render("✓"), path)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter config file (default ~/.azubihub.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			var err error
			if path, err = config.DefaultConfigPath(); err != nil {
				return err
			}
		}
		if err := config.WriteDefaultConfig(path, force); err != nil {
			if errors.Is(err, config.ErrConfigExists) {
				return fmt.Errorf("%w: %s (use --force to overwrite)", err, path)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.StylePrefixDone.Render("✓"), path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration without secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		llmCfg, err := config.LoadLLMConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		file := viper.ConfigFileUsed()
		if file == "" {
			file = "(none)"
		}
		fmt.Fprintf(out, "config file:  %s\n", file)
		fmt.Fprintf(out, "data dir:     %s\n", cfg.Storage.DataDir)
		fmt.Fprintf(out, "user:         %s\n", cfg.Identity().Email)
		fmt.Fprintf(out, "language:     %s\n", cfg.Lang)
		fmt.Fprintf(out, "llm:          %s / %s (key set: %t)\n", llmCfg.Provider, llmCfg.Model, llmCfg.APIKey != "")
		fmt.Fprintf(out, "remote store: %t\n", cfg.Storage.RemoteConfigured())
		fmt.Fprintf(out, "server:       %s (local mode: %t)\n", cfg.Server.Addr, cfg.LocalMode())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd, configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
}
