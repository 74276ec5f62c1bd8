package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	portraitfx "github.com/menta2k/portrait-fx"
	"github.com/menta2k/portrait-fx/internal/config"
	"github.com/menta2k/portrait-fx/internal/log"
	"github.com/menta2k/portrait-fx/internal/utils"
)

var (
	// cfg is the configuration shared by subcommands, loaded before each run
	cfg *config.Config
	// editor is built from cfg
	editor *portraitfx.Editor

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:     "portrait-fx",
	Short:   "Face warping and portrait compositing effects",
	Version: portraitfx.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		log.Init(cfg.LogLevel)

		engines, err := cfg.Effects()
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		editor = portraitfx.NewWithConfig(engines)
		return nil
	},
}

// loadConfig reads path, or the default config file when path is empty and
// that file exists. Otherwise the built-in defaults are used.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default(), nil
		}
	}
	c, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON config file (default: ~/.config/portrait-fx/config.json when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides the config file)")
}
