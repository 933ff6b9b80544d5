package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	pkgmqtt "github.com/autopeer-io/otahub/pkg/mqtt"
	"github.com/autopeer-io/otahub/pkg/mqtt/topic"
)

const publishQoS = 1

// message is the JSON document published for every event.
type message struct {
	Type           core.EventType `json:"type"`
	VehicleID      string         `json:"vehicle_id"`
	UpdateID       int64          `json:"update_id,omitempty"`
	FromVersion    string         `json:"from_version,omitempty"`
	ToVersion      string         `json:"to_version,omitempty"`
	Model          string         `json:"model,omitempty"`
	CurrentVersion string         `json:"current_version,omitempty"`
	Status         string         `json:"status,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// MQTTPublisher writes events to the broker synchronously. Wrap it in a
// Pipeline to keep publishing off the request path.
type MQTTPublisher struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
}

// NewMQTTPublisher returns a publisher sending to topics below root.
func NewMQTTPublisher(client pkgmqtt.Client, root string) *MQTTPublisher {
	return &MQTTPublisher{client: client, topics: topic.NewTopicBuilder(root)}
}

// Publish sends one event. Vehicle registrations go to the vehicle topic,
// lifecycle changes to the vehicle's update event topic.
func (p *MQTTPublisher) Publish(ctx context.Context, event *core.Event) error {
	t, msg := p.route(event)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	return p.client.Publish(ctx, t, publishQoS, false, payload)
}

func (p *MQTTPublisher) route(event *core.Event) (string, *message) {
	msg := &message{
		Type:      event.Type,
		VehicleID: event.VehicleID,
		Timestamp: event.Timestamp.UTC(),
	}

	if event.Type == core.EventVehicleRegistered {
		if v := event.Vehicle; v != nil {
			msg.Model = v.Model
			msg.CurrentVersion = v.CurrentVersion
			msg.Status = v.OperationalStatus
		}
		return p.topics.Vehicle(event.VehicleID), msg
	}

	if u := event.Update; u != nil {
		msg.UpdateID = u.ID
		msg.FromVersion = u.FromVersion
		msg.ToVersion = u.ToVersion
		msg.Status = string(u.LifecycleStatus)
	}
	return p.topics.UpdateEvents(event.VehicleID), msg
}
