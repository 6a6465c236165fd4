package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"

	"github.com/nao1215/pricepal/internal/config"
)

// SendFunc delivers e to addr. The default uses implicit TLS.
type SendFunc func(addr string, auth smtp.Auth, tlsConfig *tls.Config, e *email.Email) error

func sendWithTLS(addr string, auth smtp.Auth, tlsConfig *tls.Config, e *email.Email) error {
	return e.SendWithTLS(addr, auth, tlsConfig)
}

// SMTPNotifier sends email over SMTPS with PLAIN auth.
type SMTPNotifier struct {
	creds    config.Credentials
	fromName string
	send     SendFunc
	logger   *slog.Logger
}

// SMTPOption configures an SMTPNotifier.
type SMTPOption func(*SMTPNotifier)

// WithSMTPSendFunc replaces the transport.
func WithSMTPSendFunc(send SendFunc) SMTPOption {
	return func(n *SMTPNotifier) {
		n.send = send
	}
}

// WithFromName sets the display name of the sender.
func WithFromName(name string) SMTPOption {
	return func(n *SMTPNotifier) {
		n.fromName = name
	}
}

// WithSMTPLogger sets the logger.
func WithSMTPLogger(logger *slog.Logger) SMTPOption {
	return func(n *SMTPNotifier) {
		n.logger = logger
	}
}

// NewSMTPNotifier creates an SMTPNotifier. creds is expected to be validated.
func NewSMTPNotifier(creds config.Credentials, opts ...SMTPOption) *SMTPNotifier {
	n := &SMTPNotifier{
		creds:    creds,
		fromName: "PricePal",
		send:     sendWithTLS,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *SMTPNotifier) log() *slog.Logger { return n.logger }

// Provider returns "smtp".
func (n *SMTPNotifier) Provider() string { return config.ProviderSMTP }

// Send delivers msg. The SMTP exchange itself cannot be interrupted, so a
// cancelled ctx only stops the caller from waiting for it.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := n.build(msg)
	addr := net.JoinHostPort(n.creds.Server, strconv.Itoa(n.creds.Port))
	auth := smtp.PlainAuth("", n.creds.Email, n.creds.Password, n.creds.Server)
	tlsConfig := &tls.Config{ServerName: n.creds.Server, MinVersion: tls.VersionTLS12}

	n.logger.Debug("connecting to smtp server", "server", n.creds.Server, "port", n.creds.Port)

	errCh := make(chan error, 1)
	go func() {
		err := n.send(addr, auth, tlsConfig, e)
		if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
			n.logger.Warn("smtp server does not support AUTH, retrying without it", "server", n.creds.Server)
			err = n.send(addr, nil, tlsConfig, e)
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send via %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *SMTPNotifier) build(msg Message) *email.Email {
	e := email.NewEmail()
	if n.fromName != "" {
		e.From = fmt.Sprintf("%s <%s>", n.fromName, n.creds.Email)
	} else {
		e.From = n.creds.Email
	}
	e.To = msg.To
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	return e
}
