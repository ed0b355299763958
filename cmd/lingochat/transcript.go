package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/assets"
	"github.com/at-ishikawa/lingochat/internal/cli"
	"github.com/at-ishikawa/lingochat/internal/pdf"
)

func newTranscriptCommand() *cobra.Command {
	var output string
	var theme string
	var templatePath string

	command := &cobra.Command{
		Use:   "transcript <conversation-id>",
		Short: "Export a conversation as Markdown or PDF",
		Long:  "Export a conversation. The format follows the --output extension (.md or .pdf); without --output Markdown is printed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			conv, err := client.GetConversation(ctx, &apiv1.GetConversationRequest{ID: id})
			if err != nil {
				return fmt.Errorf("client.GetConversation() > %w", err)
			}
			messages, err := client.ListMessages(ctx, &apiv1.ListMessagesRequest{ConversationID: id})
			if err != nil {
				return fmt.Errorf("client.ListMessages() > %w", err)
			}
			tmpl, err := assets.ParseTranscriptTemplate(templatePath)
			if err != nil {
				return fmt.Errorf("assets.ParseTranscriptTemplate() > %w", err)
			}
			var buf bytes.Buffer
			if err := cli.RenderTranscript(&buf, tmpl, conv.Conversation, messages.Messages); err != nil {
				return fmt.Errorf("cli.RenderTranscript() > %w", err)
			}
			markdown := buf.String()

			switch filepath.Ext(output) {
			case "":
				if output != "" {
					return fmt.Errorf("output file needs a .md or .pdf extension: %s", output)
				}
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			case ".md":
				if err := os.WriteFile(output, []byte(markdown), 0644); err != nil {
					return fmt.Errorf("os.WriteFile(%s) > %w", output, err)
				}
			case ".pdf":
				if output, err = pdf.Render([]byte(markdown), output, pdf.Theme(theme)); err != nil {
					return fmt.Errorf("pdf.Render() > %w", err)
				}
			default:
				return fmt.Errorf("output file needs a .md or .pdf extension: %s", output)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transcript written to %s\n", output)
			return nil
		},
	}

	flags := command.Flags()
	flags.StringVarP(&output, "output", "o", "", "file to write (.md or .pdf)")
	flags.StringVar(&templatePath, "template", "", "Go text/template file overriding the built-in transcript layout")
	flags.StringVar(&theme, "theme", string(pdf.ThemeLight), "PDF theme (light or dark)")
	return command
}
