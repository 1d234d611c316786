// Package main provides the toolcache command line: an HTTP admin server,
// a guided demo and a small workload report for the tiered TTL cache.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/krisalay/tiered-cache/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	logger     = log.NewWithOptions(os.Stderr, log.Options{Prefix: "toolcache", ReportTimestamp: true})

	rootCmd = &cobra.Command{
		Use:           "toolcache",
		Short:         "Tiered TTL cache for tool-call results",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfigFile()
		},
	}
)

/*
loadConfig resolves the effective configuration.

ORDER:
------
1. .env file (if present) is merged into the process environment
2. TOOLCACHE_* environment variables are parsed
3. config file keys and changed flags bound in viper override them
*/
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err = cfg.Apply(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}

	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(lvl)
	return cfg, nil
}

func readConfigFile() error {
	if configFile == "" {
		viper.SetConfigName("toolcache")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && configFile == "" {
			return nil
		}
		return fmt.Errorf("unable to read config file: %w", err)
	}
	logger.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env file not loaded", "err", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./toolcache.yaml)")
	rootCmd.PersistentFlags().Int("max-entries", 0, "maximum number of local entries")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("remote", false, "enable the remote tier")

	// Config bindings
	_ = viper.BindPFlag("max_entries", rootCmd.PersistentFlags().Lookup("max-entries"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("remote.enabled", rootCmd.PersistentFlags().Lookup("remote"))

	rootCmd.AddCommand(serveCmd, demoCmd, statsCmd)
}
