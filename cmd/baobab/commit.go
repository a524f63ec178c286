package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/commitmsg"
	"github.com/jadenj13/baobab/internals/git"
	"github.com/jadenj13/baobab/internals/session"
)

func newCommitCmd(a *app) *cobra.Command {
	var (
		dir   string
		apply bool
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Suggest a commit message for the staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo := git.Open(dir)
			if !repo.IsWorkTree(cmd.Context()) {
				return errors.New("not inside a git working tree")
			}

			helper := commitmsg.New(repo, a.session(session.CommitPreamble), a.out, a.log)
			if apply {
				return helper.Apply(cmd.Context(), repo)
			}
			_, err := helper.Suggest(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "C", "", "run as if started in this directory")
	cmd.Flags().BoolVar(&apply, "apply", false, "commit the staged changes with the suggested message")
	return cmd
}
