package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the slice of the SNS client the publisher calls.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Publisher struct {
	client   SNSAPI
	topicARN string
}

func NewPublisher(cfg awssdk.Config, topicARN string) *Publisher {
	return NewPublisherWithClient(sns.NewFromConfig(cfg), topicARN)
}

func NewPublisherWithClient(client SNSAPI, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

// Publish posts message to the topic with string message attributes and
// returns the SNS message id.
func (p *Publisher) Publish(ctx context.Context, subject, message string, attrs map[string]string) (string, error) {
	in := &sns.PublishInput{
		TopicArn: awssdk.String(p.topicARN),
		Message:  awssdk.String(message),
	}
	if subject != "" {
		in.Subject = awssdk.String(subject)
	}
	if len(attrs) > 0 {
		in.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			in.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(v),
			}
		}
	}

	out, err := p.client.Publish(ctx, in)
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}
