package notifier

import (
	"context"

	"github.com/autopeer-io/otahub/internal/otahub/core"
)

// Nop discards every event. It is used when the MQTT feed is disabled.
type Nop struct{}

var _ core.EventNotifier = Nop{}

func (Nop) Notify(context.Context, *core.Event) error { return nil }
