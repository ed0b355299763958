package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/cli"
)

func newConversationsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage conversations",
	}

	command.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			res, err := client.ListConversations(cmd.Context(), &apiv1.ListConversationsRequest{})
			if err != nil {
				return fmt.Errorf("client.ListConversations() > %w", err)
			}
			return cli.RenderConversations(cmd.OutOrStdout(), res.Conversations)
		},
	})

	var status string
	createCommand := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			res, err := client.CreateConversation(cmd.Context(), &apiv1.CreateConversationRequest{
				Title:  args[0],
				Status: status,
			})
			if err != nil {
				return fmt.Errorf("client.CreateConversation() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created conversation #%d\n", res.Conversation.ID)
			return nil
		},
	}
	createCommand.Flags().StringVar(&status, "status", "", "initial status (active, learning or completed)")
	command.AddCommand(createCommand)

	command.AddCommand(&cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			res, err := client.UpdateConversation(cmd.Context(), &apiv1.UpdateConversationRequest{
				ID:     id,
				Status: &args[1],
			})
			if err != nil {
				return fmt.Errorf("client.UpdateConversation() > %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Conversation #%d is now %s\n", res.Conversation.ID, res.Conversation.Status)
			return nil
		},
	})

	return command
}
