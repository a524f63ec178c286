package main

import (
	"github.com/spf13/cobra"

	"github.com/jadenj13/baobab/internals/chat"
	"github.com/jadenj13/baobab/internals/session"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loop := chat.NewLoop(a.session(session.ChatPreamble), a.in, a.out, a.log)
			return loop.Run(cmd.Context())
		},
	}
}
