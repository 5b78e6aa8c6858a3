package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/Mr-Georgie/weather-api/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBus struct {
	calls  []*eventbridge.PutEventsInput
	failed int32
}

func (f *fakeBus) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	out := &eventbridge.PutEventsOutput{FailedEntryCount: f.failed}
	for range in.Entries {
		entry := types.PutEventsResultEntry{}
		if f.failed > 0 {
			entry.ErrorCode = aws.String("InternalFailure")
		}
		out.Entries = append(out.Entries, entry)
	}
	return out, nil
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Should send one entry per event with the detail type", func(t *testing.T) {
		bus := &fakeBus{}
		p := NewPublisher(bus, "weather-bus", zap.NewNop())

		require.NoError(t, p.Publish(ctx, events.NewLocationFavorited("loc-1", "u1", "lagos", at)))

		require.Len(t, bus.calls, 1)
		entry := bus.calls[0].Entries[0]
		assert.Equal(t, "weather-bus", aws.ToString(entry.EventBusName))
		assert.Equal(t, events.Source, aws.ToString(entry.Source))
		assert.Equal(t, events.TypeLocationFavorited, aws.ToString(entry.DetailType))

		var detail map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
		assert.Equal(t, "lagos", detail["city"])
	})

	t.Run("Should split into batches of ten", func(t *testing.T) {
		bus := &fakeBus{}
		p := NewPublisher(bus, "weather-bus", zap.NewNop())

		var evts []events.DomainEvent
		for i := 0; i < 23; i++ {
			evts = append(evts, events.NewUserRegistered(fmt.Sprintf("u%d", i), "x@example.com", at))
		}
		require.NoError(t, p.Publish(ctx, evts...))

		require.Len(t, bus.calls, 3)
		assert.Len(t, bus.calls[2].Entries, 3)
	})

	t.Run("Should report failed entries", func(t *testing.T) {
		p := NewPublisher(&fakeBus{failed: 1}, "weather-bus", zap.NewNop())
		err := p.Publish(ctx, events.NewUserDeleted("u1", at))
		assert.Error(t, err)
	})
}
