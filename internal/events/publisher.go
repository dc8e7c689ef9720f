// Package events announces scored applicants on SNS.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"applicant-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const EventApplicantScored = "applicant.scored"

// SNSAPI is the publish call of an SNS client.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Publisher struct {
	api      SNSAPI
	topicARN string
}

func NewPublisher(api SNSAPI, topicARN string) *Publisher {
	return &Publisher{api: api, topicARN: topicARN}
}

func (p *Publisher) Name() string { return "events" }

type event struct {
	Type string `json:"type"`
	*models.ScoringOutcome
}

// Record publishes an applicant.scored event. Subscribers can filter on the
// tenantId and status message attributes.
func (p *Publisher) Record(ctx context.Context, o *models.ScoringOutcome) error {
	body, err := json.Marshal(event{Type: EventApplicantScored, ScoringOutcome: o})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": stringAttribute(EventApplicantScored),
			"tenantId":  stringAttribute(o.TenantID),
			"status":    stringAttribute(o.Status),
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventApplicantScored, err)
	}
	return nil
}

func stringAttribute(v string) types.MessageAttributeValue {
	return types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
}
