package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog/log"

	"github.com/cleanflow/water-recovery-system/internal/domain"
)

// SNSClient publishes water quality alerts to an SNS topic.
type SNSClient struct {
	svc      *sns.Client
	topicArn string
}

// NewSNSClient creates a new SNS client instance
func NewSNSClient(region, topicArn string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &SNSClient{
		svc:      sns.NewFromConfig(cfg),
		topicArn: topicArn,
	}, nil
}

// SendAlert publishes one notification to the configured topic.
func (c *SNSClient) SendAlert(ctx context.Context, subject, message string) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(c.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}

	result, err := c.svc.Publish(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish to SNS: %w", err)
	}

	log.Info().Str("message_id", aws.ToString(result.MessageId)).Msg("alert published")
	return nil
}

// SendUnsafeWaterAlert formats and publishes an alert for a reading the
// classifier flagged as unsafe.
func (c *SNSClient) SendUnsafeWaterAlert(ctx context.Context, rec domain.ReadingRecord) error {
	subject := "Water Quality Alert: Unsafe Water Detected"
	message := fmt.Sprintf(
		"Unsafe Water Detected\n\n"+
			"pH: %.2f\n"+
			"Turbidity: %.2f NTU\n"+
			"Temperature: %.2f C\n"+
			"TDS: %.2f ppm\n"+
			"Confidence: %.1f%%\n"+
			"Time: %s\n\n"+
			"Divert this stream from reuse and inspect the treatment line.",
		rec.PH,
		rec.Turbidity,
		rec.Temperature,
		rec.TDS,
		rec.Confidence*100,
		rec.Timestamp.Format(time.RFC3339),
	)

	return c.SendAlert(ctx, subject, message)
}
