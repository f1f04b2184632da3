package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/talgya/vorticog/internal/world"
)

// worldEventSubject is where derived world events are published.
const worldEventSubject = "vorticog.events.world"

// NatsPublisher fans world events out over NATS. It is optional wiring;
// the bridge works without it.
type NatsPublisher struct {
	nc *nats.Conn
}

// NewNatsPublisher connects to the given NATS URL. An empty URL returns
// (nil, nil) and disables publishing.
func NewNatsPublisher(url string) (*NatsPublisher, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url, nats.Name("vorticog"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsPublisher{nc: nc}, nil
}

// PublishWorldEvent sends the event as JSON.
func (p *NatsPublisher) PublishWorldEvent(e world.WorldEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(worldEventSubject, payload); err != nil {
		return fmt.Errorf("%w: %v", world.ErrTransient, err)
	}
	return nil
}

// Close drains the connection.
func (p *NatsPublisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Drain()
	}
}
