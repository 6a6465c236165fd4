package notification

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/nao1215/pricepal/internal/table"
)

// ComposeUnformatted builds a plain-text message.
func ComposeUnformatted(subject, message string, to []string) Message {
	return Message{Subject: subject, Text: message, To: to}
}

// ComposeTable builds a message whose plain part is message followed by the
// table in pretty layout, and whose HTML part is the message as a paragraph
// followed by the table as HTML.
func ComposeTable(subject, message string, to []string, t *table.Table) (Message, error) {
	pretty, err := t.Render(table.FormatPretty)
	if err != nil {
		return Message{}, err
	}
	htmlTable, err := t.Render(table.FormatHTML)
	if err != nil {
		return Message{}, err
	}

	paragraph := strings.ReplaceAll(html.EscapeString(message), "\n", "<br/>")

	return Message{
		Subject: subject,
		Text:    message + "\n\n" + pretty,
		HTML:    "<p>" + paragraph + "</p>\n" + htmlTable,
		To:      to,
	}, nil
}

// SendUnformatted sends a plain-text email.
func SendUnformatted(ctx context.Context, n Notifier, subject, message string, to []string) error {
	return deliver(ctx, n, ComposeUnformatted(subject, message, to), "unformatted")
}

// SendTable sends an email containing message followed by t.
func SendTable(ctx context.Context, n Notifier, subject, message string, to []string, t *table.Table) error {
	msg, err := ComposeTable(subject, message, to, t)
	if err != nil {
		return fmt.Errorf("failed to compose table email: %w", err)
	}
	return deliver(ctx, n, msg, "formatted table")
}

// loggerOf returns the notifier's own logger when it has one.
func loggerOf(n Notifier) *slog.Logger {
	if l, ok := n.(interface{ log() *slog.Logger }); ok && l.log() != nil {
		return l.log()
	}
	return slog.Default()
}

func deliver(ctx context.Context, n Notifier, msg Message, kind string) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	logger := loggerOf(n).With(
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"provider", providerName(n),
	)
	logger.Debug(fmt.Sprintf("composed %s email", kind))

	if err := n.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	logger.Info(fmt.Sprintf("sent %s email", kind))
	return nil
}
