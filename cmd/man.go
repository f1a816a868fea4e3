package cmd

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

func init() {
	manCmd := &cobra.Command{
		Use:    "man",
		Short:  "Generate the quorum man page",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				return err
			}
			fmt.Println(manPage.Build(roff.NewDocument()))
			return nil
		},
	}

	rootCmd.AddCommand(manCmd)
}
