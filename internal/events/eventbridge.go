package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

// PutEventsAPI is the subset of the EventBridge client the publisher uses.
type PutEventsAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher sends each event as one PutEvents entry.
type EventBridgePublisher struct {
	client       PutEventsAPI
	eventBusName string
	source       string
}

// NewEventBridgePublisher creates a publisher for the given bus and source.
func NewEventBridgePublisher(client PutEventsAPI, eventBusName, source string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, eventBusName: eventBusName, source: source}
}

// Publish implements Publisher.
func (p *EventBridgePublisher) Publish(ctx context.Context, event Event) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(p.eventBusName),
		Source:       aws.String(p.source),
		DetailType:   aws.String(string(event.Type)),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.OccurredAt),
	}
	if event.IdeaID != "" {
		entry.Resources = []string{"brainvault:idea/" + event.IdeaID}
	}

	result, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if result.FailedEntryCount > 0 {
		for _, e := range result.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("event %s rejected: %s: %s", event.Type, aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}
	return nil
}

// Close is a no-op; the AWS client holds no connection.
func (p *EventBridgePublisher) Close() error { return nil }
