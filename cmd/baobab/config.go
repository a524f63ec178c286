package main

import "github.com/spf13/cobra"

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "config",
		Short:       "Show the resolved configuration",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipAPIKey: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			a.cfg.Describe(a.out)
			return nil
		},
	}
}
