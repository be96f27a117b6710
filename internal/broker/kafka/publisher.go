package kafka

import (
	"context"
	"time"

	"github.com/BearBump/ShipBox/internal/broker/messages"
)

type publisher interface {
	PublishJSON(ctx context.Context, topic, key string, v any) error
}

// TrackingPublisher: исходящие сообщения сервиса трекинга.
type TrackingPublisher struct {
	p   publisher
	now func() time.Time
}

func NewTrackingPublisher(p publisher) *TrackingPublisher {
	return &TrackingPublisher{p: p, now: time.Now}
}

func (t *TrackingPublisher) TrackingUpdated(ctx context.Context, msg messages.TrackingUpdated) error {
	if msg.SentAt.IsZero() {
		msg.SentAt = t.now().UTC()
	}
	return t.p.PublishJSON(ctx, TopicTrackingUpdated, msg.TrackingCode, msg)
}

func (t *TrackingPublisher) RequestSync(ctx context.Context, code string) error {
	return t.p.PublishJSON(ctx, TopicSyncRequested, code, messages.SyncRequested{
		TrackingCode: code,
		RequestedAt:  t.now().UTC(),
	})
}
