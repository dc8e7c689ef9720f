package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"applicant-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestPublisher_Record(t *testing.T) {
	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		var body map[string]interface{}
		if err := json.Unmarshal([]byte(aws.ToString(in.Message)), &body); err != nil {
			return false
		}
		return aws.ToString(in.TopicArn) == "arn:aws:sns:us-east-1:123:applicants" &&
			body["type"] == EventApplicantScored &&
			body["applicantId"] == "a1" &&
			aws.ToString(in.MessageAttributes["status"].StringValue) == "Review"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m-1")}, nil)

	p := NewPublisher(api, "arn:aws:sns:us-east-1:123:applicants")
	err := p.Record(context.Background(), &models.ScoringOutcome{TenantID: "tenant-1", ApplicantID: "a1", Status: "Review"})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestPublisher_RecordError(t *testing.T) {
	api := new(mockSNS)
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewPublisher(api, "arn").Record(context.Background(), &models.ScoringOutcome{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
