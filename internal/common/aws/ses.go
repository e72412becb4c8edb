package aws

import (
	"context"
	"errors"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESAPI is the slice of the SES client the mailer calls.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer struct {
	client SESAPI
	from   string
}

func NewMailer(cfg awssdk.Config, from string) *Mailer {
	return NewMailerWithClient(ses.NewFromConfig(cfg), from)
}

func NewMailerWithClient(client SESAPI, from string) *Mailer {
	return &Mailer{client: client, from: from}
}

// Send delivers one email and returns the SES message id.
func (m *Mailer) Send(ctx context.Context, email Email) (string, error) {
	if email.To == "" {
		return "", errors.New("email recipient is empty")
	}

	body := &types.Body{Text: &types.Content{Data: awssdk.String(email.TextBody), Charset: awssdk.String("UTF-8")}}
	if email.HTMLBody != "" {
		body.Html = &types.Content{Data: awssdk.String(email.HTMLBody), Charset: awssdk.String("UTF-8")}
	}

	out, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{email.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(email.Subject), Charset: awssdk.String("UTF-8")},
			Body:    body,
		},
		Source: awssdk.String(m.from),
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}
