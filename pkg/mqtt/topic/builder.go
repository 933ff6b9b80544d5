package topic

import (
	"fmt"
	"strings"
)

// Topic segments published by the hub. Subscribers depend on these values.
const (
	// SuffixUpdateEvents carries OTA lifecycle transitions.
	// Structure: {root}/ota/events/{vehicleID}
	SuffixUpdateEvents = "ota/events"

	// SuffixVehicle carries vehicle registrations.
	// Structure: {root}/vehicles/{vehicleID}
	SuffixVehicle = "vehicles"

	// Wildcard is the single-level wildcard "+".
	Wildcard = "+"
)

// TopicBuilder constructs topic strings under a fixed root namespace.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "fleet/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
// Trailing slashes on root are ignored.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: strings.TrimRight(root, "/")}
}

// UpdateEvents returns the topic for lifecycle events of one vehicle.
func (b *TopicBuilder) UpdateEvents(vehicleID string) string {
	return b.build(SuffixUpdateEvents, vehicleID)
}

// UpdateEventsWildcard matches lifecycle events of every vehicle.
func (b *TopicBuilder) UpdateEventsWildcard() string {
	return b.build(SuffixUpdateEvents, Wildcard)
}

// Vehicle returns the topic for registration events of one vehicle.
func (b *TopicBuilder) Vehicle(vehicleID string) string {
	return b.build(SuffixVehicle, vehicleID)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{suffix}/{identifier}
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
