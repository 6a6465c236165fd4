package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/pricepal/internal/config"
)

var (
	// ErrNoRecipients is returned when a message has no To addresses.
	ErrNoRecipients = errors.New("message has no recipients")

	// ErrNoFromAddress is returned when the SES notifier has no sender.
	ErrNoFromAddress = errors.New("ses notifier requires a from address")
)

// Message is a composed email. HTML is optional.
type Message struct {
	Subject string
	Text    string
	HTML    string
	To      []string
}

// Notifier delivers composed messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Provider is implemented by notifiers that can name their backend.
type Provider interface {
	Provider() string
}

// Option configures New.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	sesRegion string
	from      string
	send      SendFunc
}

// WithLogger sets the logger used by the notifier.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSESRegion sets the AWS region for the ses provider.
func WithSESRegion(region string) Option {
	return func(o *options) {
		o.sesRegion = region
	}
}

// WithFrom sets the sender address for the ses provider.
func WithFrom(from string) Option {
	return func(o *options) {
		o.from = from
	}
}

// WithSendFunc replaces the SMTP transport. Intended for tests.
func WithSendFunc(send SendFunc) Option {
	return func(o *options) {
		o.send = send
	}
}

// New creates the notifier for provider ("smtp", "ses" or "noop").
// An empty provider means smtp.
func New(ctx context.Context, provider string, creds config.Credentials, opts ...Option) (Notifier, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	switch provider {
	case "", config.ProviderSMTP:
		if err := creds.Validate(); err != nil {
			return nil, err
		}
		smtpOpts := []SMTPOption{WithSMTPLogger(o.logger)}
		if o.send != nil {
			smtpOpts = append(smtpOpts, WithSMTPSendFunc(o.send))
		}
		return NewSMTPNotifier(creds, smtpOpts...), nil

	case config.ProviderSES:
		from := o.from
		if from == "" {
			from = creds.Email
		}
		return NewSESNotifier(ctx, o.sesRegion, from, o.logger)

	case config.ProviderNoop:
		return NewNoopNotifier(o.logger), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, provider)
	}
}

func providerName(n Notifier) string {
	if p, ok := n.(Provider); ok {
		return p.Provider()
	}
	return fmt.Sprintf("%T", n)
}
