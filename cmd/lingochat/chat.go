package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/cli"
	"github.com/at-ishikawa/lingochat/internal/conversation"
)

// languageFlag restricts --lang to the supported languages.
type languageFlag conversation.Language

func (l *languageFlag) Set(val string) error {
	switch conversation.Language(val) {
	case conversation.LanguageKorean, conversation.LanguageEnglish:
		*l = languageFlag(val)
		return nil
	}
	return fmt.Errorf("invalid language: %s", val)
}

func (l languageFlag) String() string {
	return string(l)
}

func (l *languageFlag) Type() string {
	return "language"
}

var _ pflag.Value = (*languageFlag)(nil)

func newChatCommand() *cobra.Command {
	language := languageFlag(conversation.LanguageEnglish)
	var title string

	command := &cobra.Command{
		Use:   "chat [conversation-id]",
		Short: "Start an interactive translation session",
		Long:  "Start an interactive translation session. Without an id a new conversation is created.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var conversationID int64
			if len(args) == 1 {
				if conversationID, err = parseID(args[0]); err != nil {
					return err
				}
				res, err := client.GetConversation(ctx, &apiv1.GetConversationRequest{ID: conversationID})
				if err != nil {
					return fmt.Errorf("client.GetConversation() > %w", err)
				}
				title = res.Conversation.Title
			} else {
				res, err := client.CreateConversation(ctx, &apiv1.CreateConversationRequest{Title: title})
				if err != nil {
					return fmt.Errorf("client.CreateConversation() > %w", err)
				}
				conversationID = res.Conversation.ID
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Conversation #%d: %s\n", conversationID, title)
			session := cli.NewChatCLI(client, conversationID, conversation.Language(language), cmd.InOrStdin(), cmd.OutOrStdout())
			return session.Run(ctx)
		},
	}

	flags := command.Flags()
	flags.Var(&language, "lang", "language you type in (ko or en)")
	flags.StringVar(&title, "title", "Practice session", "title of the new conversation")
	return command
}
