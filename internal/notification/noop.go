package notification

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/pricepal/internal/config"
)

// NoopNotifier logs messages instead of sending them.
type NoopNotifier struct {
	logger *slog.Logger
}

// NewNoopNotifier creates a NoopNotifier. A nil logger uses slog.Default().
func NewNoopNotifier(logger *slog.Logger) *NoopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) log() *slog.Logger { return n.logger }

// Provider returns "noop".
func (n *NoopNotifier) Provider() string { return config.ProviderNoop }

// Send logs msg and returns nil.
func (n *NoopNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("dry run: email not sent",
		"to", strings.Join(msg.To, ", "),
		"subject", msg.Subject,
		"has_html", msg.HTML != "",
	)
	n.logger.Debug("dry run email body", "text", msg.Text)
	return nil
}
