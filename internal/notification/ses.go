package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/nao1215/pricepal/internal/config"
)

// SESAPI is the part of the SES v2 client used by SESNotifier.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends email through Amazon SES.
type SESNotifier struct {
	client SESAPI
	from   string
	logger *slog.Logger
}

// NewSESNotifier loads the default AWS configuration for region and creates
// an SESNotifier. An empty region uses the SDK's usual resolution.
func NewSESNotifier(ctx context.Context, region, from string, logger *slog.Logger) (*SESNotifier, error) {
	if from == "" {
		return nil, ErrNoFromAddress
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}

	return NewSESNotifierWithClient(sesv2.NewFromConfig(cfg), from, logger), nil
}

// NewSESNotifierWithClient creates an SESNotifier around an existing client.
func NewSESNotifierWithClient(client SESAPI, from string, logger *slog.Logger) *SESNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SESNotifier{client: client, from: from, logger: logger}
}

func (n *SESNotifier) log() *slog.Logger { return n.logger }

// Provider returns "ses".
func (n *SESNotifier) Provider() string { return config.ProviderSES }

// Send delivers msg with a simple (subject, text, html) content body.
func (n *SESNotifier) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Text)},
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML)}
	}

	out, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("PricePal <%s>", n.from)),
		Destination: &types.Destination{
			ToAddresses: msg.To,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body:    body,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}

	if out != nil && out.MessageId != nil {
		n.logger.Debug("ses accepted message", "message_id", aws.ToString(out.MessageId))
	}
	return nil
}
