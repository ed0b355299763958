package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/conversation"
)

var errEnd = errors.New("end of session")

//go:generate mockgen -source=chat_cli.go -destination=../mocks/cli/mock_chat_api.go -package=mock_cli ChatAPI

// ChatAPI is the part of the chat service an interactive session talks to.
type ChatAPI interface {
	CreateMessage(ctx context.Context, req *apiv1.CreateMessageRequest) (*apiv1.CreateMessageResponse, error)
	SubmitFeedback(ctx context.Context, req *apiv1.SubmitFeedbackRequest) (*apiv1.SubmitFeedbackResponse, error)
}

// ChatCLI runs an interactive translation session against one conversation.
// Each line typed is stored as a user message and then translated into the
// other language as a generated message.
type ChatCLI struct {
	api            ChatAPI
	conversationID int64
	language       conversation.Language
	lastReplyID    int64

	stdinReader  *bufio.Reader
	stdoutWriter io.Writer
	bold         *color.Color
	italic       *color.Color
	warn         *color.Color
}

func NewChatCLI(
	api ChatAPI,
	conversationID int64,
	language conversation.Language,
	stdin io.Reader,
	stdout io.Writer,
) *ChatCLI {
	return &ChatCLI{
		api:            api,
		conversationID: conversationID,
		language:       language,
		stdinReader:    bufio.NewReader(stdin),
		stdoutWriter:   stdout,
		bold:           color.New(color.Bold),
		italic:         color.New(color.Italic),
		warn:           color.New(color.FgYellow),
	}
}

// Run repeats Session until the input ends, /quit is typed or an interrupt arrives.
func (cli *ChatCLI) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if _, err := fmt.Fprintln(cli.stdoutWriter, sessionHelp); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := cli.Session(ctx); err != nil {
				if !errors.Is(err, errEnd) {
					errCh <- err
				}
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_, _ = fmt.Fprintln(cli.stdoutWriter, "Received interrupt signal, exiting...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error: %w", err)
		}
	}
	return nil
}

const sessionHelp = `Type a sentence to translate it. Commands:
  /lang ko|en       change the language you type in
  /good, /bad       rate the last translation
  /suggest <text>   suggest a better translation
  /quit             end the session`

// Session handles a single line of input.
func (cli *ChatCLI) Session(ctx context.Context) error {
	if _, err := fmt.Fprintf(cli.stdoutWriter, "[%s] > ", cli.language); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	line, err := cli.stdinReader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdinReader.ReadString() > %w", err)
	}
	atEOF := errors.Is(err, io.EOF)
	line = strings.TrimSpace(line)
	if line == "" {
		if atEOF {
			return errEnd
		}
		return nil
	}

	if strings.HasPrefix(line, "/") {
		if err := cli.command(ctx, line); err != nil {
			return err
		}
	} else if err := cli.translate(ctx, line); err != nil {
		return err
	}
	if atEOF {
		return errEnd
	}
	return nil
}

func (cli *ChatCLI) command(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return errEnd
	case "/lang":
		switch conversation.Language(arg) {
		case conversation.LanguageKorean, conversation.LanguageEnglish:
			cli.language = conversation.Language(arg)
			return cli.println(fmt.Sprintf("Now typing in %s", arg))
		}
		return cli.println("Usage: /lang ko|en")
	case "/good":
		return cli.feedback(ctx, conversation.FeedbackPositive, nil)
	case "/bad":
		return cli.feedback(ctx, conversation.FeedbackNegative, nil)
	case "/suggest":
		if arg == "" {
			return cli.println("Usage: /suggest <text>")
		}
		return cli.feedback(ctx, conversation.FeedbackSuggestion, &arg)
	}
	return cli.println(fmt.Sprintf("Unknown command %s", name))
}

func (cli *ChatCLI) translate(ctx context.Context, text string) error {
	if _, err := cli.api.CreateMessage(ctx, &apiv1.CreateMessageRequest{
		ConversationID: cli.conversationID,
		Content:        text,
		Language:       string(cli.language),
		IsUser:         true,
	}); err != nil {
		return fmt.Errorf("api.CreateMessage(user) > %w", err)
	}

	res, err := cli.api.CreateMessage(ctx, &apiv1.CreateMessageRequest{
		ConversationID: cli.conversationID,
		Content:        text,
		Language:       string(cli.language),
	})
	if err != nil {
		return fmt.Errorf("api.CreateMessage(reply) > %w", err)
	}
	cli.lastReplyID = res.Message.ID
	return cli.displayReply(res.Message)
}

func (cli *ChatCLI) displayReply(message apiv1.Message) error {
	translation := ""
	if message.TranslatedContent != nil {
		translation = *message.TranslatedContent
	}
	if _, err := cli.bold.Fprintf(cli.stdoutWriter, "  %s\n", translation); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	if fallback, _ := message.Metadata["fallback"].(bool); fallback {
		if _, err := cli.warn.Fprintln(cli.stdoutWriter, "  (the translator was unavailable, this is a fallback reply)"); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}

	var details []string
	if confidence, ok := message.Metadata["confidence"].(float64); ok {
		details = append(details, fmt.Sprintf("confidence %.0f%%", confidence*100))
	}
	if category, ok := message.Metadata["category"].(string); ok {
		details = append(details, category)
	}
	details = append(details, metadataStrings(message.Metadata["insights"])...)
	if len(details) == 0 {
		return nil
	}
	if _, err := cli.italic.Fprintf(cli.stdoutWriter, "  %s\n", strings.Join(details, " · ")); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

func (cli *ChatCLI) feedback(ctx context.Context, feedbackType conversation.FeedbackType, suggestion *string) error {
	if cli.lastReplyID == 0 {
		return cli.println("Nothing to rate yet")
	}
	if _, err := cli.api.SubmitFeedback(ctx, &apiv1.SubmitFeedbackRequest{
		MessageID:    cli.lastReplyID,
		FeedbackType: string(feedbackType),
		Suggestion:   suggestion,
	}); err != nil {
		return fmt.Errorf("api.SubmitFeedback() > %w", err)
	}
	_, err := color.New(color.FgGreen).Fprintln(cli.stdoutWriter, "  Thanks for the feedback")
	return err
}

func (cli *ChatCLI) println(text string) error {
	if _, err := fmt.Fprintln(cli.stdoutWriter, text); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	return nil
}

// metadataStrings reads a string list that may have been decoded from JSON as []any.
func metadataStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}
