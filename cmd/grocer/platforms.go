package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the supported platforms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := loadPlatforms()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, id := range registry.List() {
				cfg, err := registry.Lookup(id)
				if err != nil {
					return err
				}
				variants := "no variants"
				if cfg.Selectors.SupportsVariants() {
					variants = "variants"
				}
				fmt.Fprintf(out, "%-10s %-10s %-35s %s\n", cfg.ID, cfg.Name, cfg.BaseURL, variants)
			}
			return nil
		},
	}
}
