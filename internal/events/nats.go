// Package events publishes todo lifecycle notifications to NATS.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Tomlord1122/todo-api/internal/domain"
)

const (
	EventAdded     = "added"
	EventUpdated   = "updated"
	EventDeleted   = "deleted"
	EventCompleted = "completed"
)

// Envelope is the JSON body of every published message.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Todo       domain.TodoItem `json:"todo"`
}

// Publisher is a service.Observer that forwards each notification to the
// subject "<prefix>.todo.<event>". Publishing is fire-and-forget on the NATS
// side; an error is only returned when the connection refuses the message.
type Publisher struct {
	nc     *nats.Conn
	owned  bool
	prefix string
	now    func() time.Time
	log    *slog.Logger
}

// Connect dials url and returns a Publisher that closes the connection on
// Close.
func Connect(url, prefix, name string, log *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("nats url is empty")
	}
	nc, err := nats.Connect(url, func(o *nats.Options) error {
		if name != "" {
			o.Name = name
		}
		return nil
	}, nats.MaxReconnects(-1), nats.ReconnectWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	p := NewPublisher(nc, prefix, log)
	p.owned = true
	return p, nil
}

// NewPublisher wraps an existing connection. The caller keeps ownership of nc.
func NewPublisher(nc *nats.Conn, prefix string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = "todoapp"
	}
	return &Publisher{nc: nc, prefix: prefix, now: time.Now, log: log}
}

// Subject returns the subject used for event.
func (p *Publisher) Subject(event string) string {
	return p.prefix + ".todo." + event
}

func (p *Publisher) TodoAdded(ctx context.Context, item domain.TodoItem) error {
	return p.publish(ctx, EventAdded, item)
}

func (p *Publisher) TodoUpdated(ctx context.Context, item domain.TodoItem) error {
	return p.publish(ctx, EventUpdated, item)
}

func (p *Publisher) TodoDeleted(ctx context.Context, item domain.TodoItem) error {
	return p.publish(ctx, EventDeleted, item)
}

func (p *Publisher) TodoCompleted(ctx context.Context, item domain.TodoItem) error {
	return p.publish(ctx, EventCompleted, item)
}

func (p *Publisher) publish(ctx context.Context, event string, item domain.TodoItem) error {
	data, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       event,
		OccurredAt: p.now().UTC(),
		Todo:       item,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event),
		Data:    data,
		Header:  nats.Header{},
	}
	if rid := middleware.GetReqID(ctx); rid != "" {
		msg.Header.Set("X-Request-ID", rid)
	}

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	p.log.DebugContext(ctx, "published todo event", "subject", msg.Subject, "id", item.ID)
	return nil
}

// Close drains the connection if the Publisher opened it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	err := p.nc.Drain()
	p.nc.Close()
	return err
}
