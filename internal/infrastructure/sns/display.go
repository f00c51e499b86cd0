package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/edumon-sync/internal/config"
	"github.com/edumon-sync/internal/domain"
	"github.com/edumon-sync/internal/infrastructure/awsconf"
)

type publishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Display shows notifications by publishing them to an SNS target: a mobile
// platform endpoint or a topic the desktop tray subscribes to.
type Display struct {
	client    publishAPI
	targetARN string
}

// NewClient creates an SNS client in cfg.SNSRegion, honouring the LocalStack endpoint.
func NewClient(ctx context.Context, cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, clientOpts...), nil
}

func NewDisplay(client *sns.Client, targetARN string) *Display {
	return &Display{client: client, targetARN: targetARN}
}

// message is the JSON body published for one notification.
type message struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Body           string  `json:"body"`
	Kind           string  `json:"kind"`
	ReferenceID    *string `json:"reference_id,omitempty"`
	ReferenceModel *string `json:"reference_model,omitempty"`
	Source         string  `json:"source"`
}

func (d *Display) Show(ctx context.Context, n domain.LocalNotification) error {
	raw, err := json.Marshal(message{
		ID:             n.ID,
		Title:          n.Title,
		Subtitle:       n.Subtitle,
		Body:           n.Body,
		Kind:           string(n.Kind),
		ReferenceID:    n.ReferenceID,
		ReferenceModel: n.ReferenceModel,
		Source:         string(n.Source),
	})
	if err != nil {
		return fmt.Errorf("encode sns message: %w", err)
	}
	_, err = d.client.Publish(ctx, &sns.PublishInput{
		TargetArn: aws.String(d.targetARN),
		Subject:   aws.String(subject(n.Title)),
		Message:   aws.String(string(raw)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String(string(n.Kind))},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// subject trims the title to the 100 characters SNS accepts.
func subject(title string) string {
	r := []rune(title)
	if len(r) > 100 {
		r = r[:100]
	}
	if len(r) == 0 {
		return domain.DefaultPushTitle
	}
	return string(r)
}
