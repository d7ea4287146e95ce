package eventbridge

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kwansinnn/cytosight-all-detect/domain/events"
)

type fakeAPI struct {
	calls  []*eventbridge.PutEventsInput
	output func(in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error)
}

func (f *fakeAPI) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.output != nil {
		return f.output(in)
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func deletedEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewUploadDeleted(fmt.Sprintf("u%d", i), "alice", time.Unix(1710000000, 0))
	}
	return out
}

func TestPublishBatch_ChunksOfTen(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(api, "cytosight", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), deletedEvents(23)))

	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].Entries, 10)
	assert.Len(t, api.calls[2].Entries, 3)
	entry := api.calls[0].Entries[0]
	assert.Equal(t, "cytosight", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeUploadDeleted, aws.ToString(entry.DetailType))
	assert.Equal(t, []string{"u0"}, entry.Resources)
	assert.JSONEq(t, `{"aggregate_id":"u0","event_type":"upload.deleted","user_id":"alice","timestamp":"2024-03-09T16:00:00Z","version":1}`,
		aws.ToString(entry.Detail))
}

func TestPublish_FailedEntries(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	api := &fakeAPI{output: func(in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		return &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
			},
		}, nil
	}}
	p := NewPublisher(api, "", zap.New(core))

	err := p.Publish(context.Background(), deletedEvents(1)[0])

	assert.Error(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ThrottlingException", logs.All()[0].ContextMap()["error_code"])
	assert.Equal(t, "default", aws.ToString(api.calls[0].Entries[0].EventBusName))
}

func TestPublish_APIErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	api := &fakeAPI{output: func(*eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		return nil, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no", Fault: smithy.FaultClient}
	}}
	p := NewPublisher(api, "bus", zap.New(core))

	err := p.Publish(context.Background(), deletedEvents(1)[0])

	require.Error(t, err)
	var apiErr smithy.APIError
	assert.ErrorAs(t, err, &apiErr)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "AccessDeniedException", logs.All()[0].ContextMap()["error_code"])
}

func TestPublishBatch_Empty(t *testing.T) {
	api := &fakeAPI{}
	require.NoError(t, NewPublisher(api, "bus", zap.NewNop()).PublishBatch(context.Background(), nil))
	assert.Empty(t, api.calls)
}
