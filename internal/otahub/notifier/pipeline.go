package notifier

import (
	"context"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
	"github.com/autopeer-io/otahub/pkg/log"
)

// Publisher delivers a single event, blocking until it is handed to the
// transport.
type Publisher interface {
	Publish(ctx context.Context, event *core.Event) error
}

var _ core.EventNotifier = (*Pipeline)(nil)

// Pipeline is a bounded FIFO in front of a Publisher. Notify never blocks:
// when the queue is full the event is dropped and counted, so a slow or
// absent broker can never stall a committed operation.
type Pipeline struct {
	publisher Publisher

	// inputCh is where committed events are pushed.
	inputCh chan *core.Event

	// publishTimeout bounds a single publish attempt.
	publishTimeout time.Duration

	done chan struct{}
}

// NewPipeline creates a pipeline holding up to size pending events.
func NewPipeline(p Publisher, size int) *Pipeline {
	if size <= 0 {
		size = 1
	}
	return &Pipeline{
		publisher:      p,
		inputCh:        make(chan *core.Event, size),
		publishTimeout: 5 * time.Second,
		done:           make(chan struct{}),
	}
}

// Notify enqueues event. It is non-blocking.
func (p *Pipeline) Notify(_ context.Context, event *core.Event) error {
	select {
	case p.inputCh <- event:
	default:
		// Queue full: shed the event rather than hold up the caller.
		metrics.EventPublishTotal.WithLabelValues(metrics.ResultDropped).Inc()
		log.Warn("Event pipeline full, dropping event", "type", event.Type, "vehicleID", event.VehicleID)
	}
	return nil
}

// Start runs the delivery worker until ctx is done, then drains what is
// still queued. It blocks and should be run in its own goroutine.
func (p *Pipeline) Start(ctx context.Context) {
	defer close(p.done)

	log.Info("Event pipeline started", "capacity", cap(p.inputCh))

	for {
		select {
		case event := <-p.inputCh:
			p.deliver(ctx, event)

		case <-ctx.Done():
			p.drain()
			return
		}
	}
}

// Done is closed once Start has returned.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

func (p *Pipeline) drain() {
	for {
		select {
		case event := <-p.inputCh:
			p.deliver(context.Background(), event)
		default:
			log.Debug("Event pipeline drained")
			return
		}
	}
}

func (p *Pipeline) deliver(ctx context.Context, event *core.Event) {
	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	if err := p.publisher.Publish(ctx, event); err != nil {
		metrics.EventPublishTotal.WithLabelValues(metrics.ResultError).Inc()
		log.Error(err, "Failed to publish event", "type", event.Type, "vehicleID", event.VehicleID)
		return
	}
	metrics.EventPublishTotal.WithLabelValues(metrics.ResultOK).Inc()
}
