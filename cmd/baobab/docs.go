package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/docgen"
	"github.com/jadenj13/baobab/internals/session"
)

func newDocsCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "docs [paths...]",
		Short: "Generate Markdown documentation for source files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			if output == "" {
				output = a.cfg.Docs.Output
			}

			gen := docgen.New(a.session(session.DocsPreamble), a.log)
			path, err := gen.Generate(cmd.Context(), args, output)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Documentation written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default docs.output)")
	return cmd
}
