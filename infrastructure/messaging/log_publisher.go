// Package messaging holds event publishers that do not need a broker.
package messaging

import (
	"context"

	"github.com/Mr-Georgie/weather-api/application/ports"
	"github.com/Mr-Georgie/weather-api/domain/events"
)

// LogPublisher writes domain events to the log. Used when no event bus is configured.
type LogPublisher struct {
	logger ports.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger ports.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	for _, e := range evts {
		p.logger.Info("Domain event",
			"event_type", e.GetEventType(),
			"aggregate_id", e.GetAggregateID(),
			"timestamp", e.GetTimestamp(),
		)
	}
	return nil
}
