package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sanix-darker/quorum/internal/analyzer"
	"github.com/sanix-darker/quorum/internal/config"
)

func init() {
	agentsCmd := &cobra.Command{
		Use:   "agents",
		Short: "List the review agents and their status under the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Fprintf(cfg.OutWriter, "%-20s %-14s %-8s %-8s %s\n",
				"AGENT", "CATEGORY", "WEIGHT", "ACTIVE", "CAPABILITIES")
			for _, kind := range analyzer.Kinds() {
				desc := analyzer.Describe(kind, cfg)
				active := cfg.FocusEnabled(desc.Category) && desc.Weight > 0
				fmt.Fprintf(cfg.OutWriter, "%-20s %-14s %-8.2f %-8v %s\n",
					desc.ID, desc.Category, desc.Weight, active,
					strings.Join(desc.Capabilities, ", "))
			}
			return nil
		},
	}

	rootCmd.AddCommand(agentsCmd)
}
