/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/azubihub/internal/config"
	"github.com/josephgoksu/azubihub/internal/logger"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables debug logging.
	verbose bool
	// version is the application version, set at build time.
	version = "0.1.0"

	// appFs is where the CLI reads templates and uploads and writes PDFs.
	appFs afero.Fs = afero.NewOsFs()
	// now is the clock used for reporting weeks.
	now = time.Now

	initErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "azubihub",
	Short: "AzubiHub keeps an apprentice's tasks and writes the weekly Berichtsheft.",
	Long: `AzubiHub is the training companion for retail apprentices.

Track your tasks, let the AI write your weekly training report
(Ausbildungsnachweis) from the tasks you completed, fill your school's
PDF template and practice with the AI mentor.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: preRun,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.HandlePanic()
	logger.SetVersion(version)
	logger.SetCommand(strings.Join(os.Args, " "))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.azubihub.yaml or $HOME/.azubihub.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	initErr = config.InitConfig(cfgFile)
}

// preRun validates the configuration and installs the logger before any
// subcommand runs.
func preRun(cmd *cobra.Command, _ []string) error {
	if initErr != nil {
		return initErr
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	slog.SetDefault(logger.New(logger.Options{Level: level, Format: cfg.Log.Format, Out: cmd.ErrOrStderr()}))
	logger.SetBasePath(cfg.Storage.DataDir)
	return nil
}
