/*
Copyright © 2023 sanix-darker <s4nixd@gmail.com>
*/
package cmd

import (
	"github.com/spf13/pflag"

	"github.com/sanix-darker/quorum/internal/config"
)

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
}

// applyGlobalFlags folds persistent flag overrides into the loaded config.
func applyGlobalFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if debug, err := flags.GetBool("debug"); err == nil && debug {
		cfg.Debug = true
	}
}
