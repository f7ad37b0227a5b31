package repository

import (
	"context"
	"math"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	pkgkafka "TrendCast/pkg/kafka"
)

// KafkaEventPublisher writes forecast events keyed by instrument.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) PublishForecast(ctx context.Context, ev *models.ForecastEvent) error {
	out := *ev
	if math.IsNaN(out.R2) || math.IsInf(out.R2, 0) {
		out.R2 = 0
	}
	return p.producer.Publish(ctx, []byte(ev.Instrument), out)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher drops every event. Used when no brokers are configured.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishForecast(context.Context, *models.ForecastEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NoopEventPublisher{}
)
