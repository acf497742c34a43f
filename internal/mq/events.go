package mq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// Post event types.
const (
	EventPostCreated = "post.created"
	EventPostUpdated = "post.updated"
)

// PostEvent describes a change to a post.
type PostEvent struct {
	Type       string    `json:"type"`
	PostID     int       `json:"post_id"`
	AuthorID   int       `json:"author_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PostEvents publishes post lifecycle events to a single channel.
// Publishing is best-effort: a broker failure is logged and never surfaces
// to the request that triggered the event.
type PostEvents struct {
	backend Backend
	channel string
	logger  *slog.Logger
}

func NewPostEvents(backend Backend, channel string, logger *slog.Logger) *PostEvents {
	return &PostEvents{
		backend: backend,
		channel: channel,
		logger:  logger,
	}
}

// Publish emits an event for the given post change.
func (p *PostEvents) Publish(ctx context.Context, event PostEvent) {
	if p == nil || p.backend == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal post event", "type", event.Type, "err", err)
		return
	}

	attrs := map[string]string{"type": event.Type}
	if _, err := p.backend.Publish(ctx, p.channel, data, attrs); err != nil {
		p.logger.Error("publish post event", "type", event.Type, "post_id", event.PostID, "err", err)
	}
}

// Consume subscribes to the event channel and invokes fn for each decoded
// event until ctx is cancelled. A payload that does not decode is logged and
// acknowledged so it is not redelivered forever.
func (p *PostEvents) Consume(ctx context.Context, fn func(ctx context.Context, event PostEvent) error) error {
	if p == nil || p.backend == nil {
		return errors.New("no broker configured")
	}
	return p.backend.Subscribe(ctx, p.channel, func(ctx context.Context, msg Message) error {
		var event PostEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			p.logger.Error("decode post event", "msg_id", msg.ID, "err", err)
			return nil
		}
		return fn(ctx, event)
	})
}

// Close closes the underlying backend.
func (p *PostEvents) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}
