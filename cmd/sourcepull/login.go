package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate the legal database browser sessions",
	Long: `Login opens a browser session per legal database and signs in with the
credentials from .secrets/ (hein-username, hein-password, westlaw-username,
westlaw-password, ssrn-username, ssrn-password). The Hein login blocks
until its two-factor push is approved on your phone. Databases that are
already authenticated are skipped.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, cleanup := newPuller(cfg)
	defer cleanup()

	if err := p.Login(cmd.Context(), databaseCreds()); err != nil {
		return err
	}
	fmt.Println("All databases authenticated.")
	return nil
}
