// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the sourcepull CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshintel/sourcepull/internal/browser"
	"github.com/meshintel/sourcepull/internal/connector"
	"github.com/meshintel/sourcepull/internal/puller"
	"github.com/meshintel/sourcepull/internal/secrets"
	"github.com/meshintel/sourcepull/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds database credentials loaded from .secrets/ at
// startup.
var loadedSecrets map[string]string

var logger *zap.Logger

// rootCmd is the base command for the sourcepull CLI.
var rootCmd = &cobra.Command{
	Use:   "sourcepull",
	Short: "Pull cited legal sources for law review editing",
	Long: `sourcepull turns the footnotes of a law review article into a classified
source worklist and retrieves each source as a PDF from the database that
holds it: journal articles and federal statutes from HeinOnline, cases and
state statutes from Westlaw, working papers from SSRN, and everything else
from the open web.

Each stage is a subcommand: extract builds the worklist, login
authenticates the database sessions, pull retrieves sources, and status
and history report on the results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./sourcepull.yaml or ~/.config/sourcepull/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("sourcepull")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sourcepull"))
		}
	}

	viper.SetEnvPrefix("SOURCEPULL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig resolves the full configuration from the config file and
// environment, with working defaults for anything unset.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg.Defaults()
	return cfg, nil
}

// databaseCreds maps each database to its credentials from .secrets/.
func databaseCreds() map[string]secrets.Credentials {
	creds := make(map[string]secrets.Credentials)
	for _, db := range []string{"hein", "westlaw", "ssrn"} {
		creds[db] = secrets.DatabaseCredentials(loadedSecrets, db)
	}
	return creds
}

// newPuller wires the browser sessions and connectors into an
// orchestrator. The returned cleanup closes every session.
func newPuller(cfg types.Config) (*puller.Puller, func()) {
	newSession := func(name string) *browser.Session {
		return browser.NewSession(name, cfg.Browser, logger)
	}
	heinSession := newSession("hein")
	westlawSession := newSession("westlaw")
	ssrnSession := newSession("ssrn")
	webSession := newSession("web")

	p := puller.New(puller.Deps{
		Hein:    connector.NewHein(heinSession, cfg.Puller, logger),
		Westlaw: connector.NewWestlaw(westlawSession, cfg.Puller, logger),
		SSRN:    connector.NewSSRN(ssrnSession, cfg.Puller, logger),
		Web:     connector.NewWeb(webSession, cfg.Puller, logger),
		Logger:  logger,
	})
	cleanup := func() {
		for _, s := range []*browser.Session{heinSession, westlawSession, ssrnSession, webSession} {
			s.Close()
		}
	}
	return p, cleanup
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
