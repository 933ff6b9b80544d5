package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
)

type published struct {
	topic   string
	qos     int
	retain  bool
	payload []byte
}

type fakeClient struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (f *fakeClient) Start(context.Context) error           { return nil }
func (f *fakeClient) Disconnect(context.Context)            {}
func (f *fakeClient) AwaitConnection(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool                     { return true }
func (f *fakeClient) Publish(_ context.Context, topic string, qos int, retain bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, qos, retain, payload})
	return nil
}

func (f *fakeClient) sent() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.msgs...)
}

func TestPublishUpdateEvent(t *testing.T) {
	c := &fakeClient{}
	p := NewMQTTPublisher(c, "fleet/v1/")
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := p.Publish(context.Background(), &core.Event{
		Type:      core.EventUpdateStarted,
		VehicleID: "V1",
		Update:    &model.Update{ID: 7, VehicleID: "V1", FromVersion: "1.0", ToVersion: "2.0", LifecycleStatus: model.StatusInProgress},
		Timestamp: ts,
	})
	require.NoError(t, err)

	sent := c.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "fleet/v1/ota/events/V1", sent[0].topic)
	assert.Equal(t, 1, sent[0].qos)
	assert.False(t, sent[0].retain)

	var got map[string]any
	require.NoError(t, json.Unmarshal(sent[0].payload, &got))
	assert.Equal(t, "UpdateStarted", got["type"])
	assert.Equal(t, float64(7), got["update_id"])
	assert.Equal(t, "IN_PROGRESS", got["status"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["timestamp"])
}

func TestPublishVehicleRegistered(t *testing.T) {
	c := &fakeClient{}
	p := NewMQTTPublisher(c, "fleet/v1")

	require.NoError(t, p.Publish(context.Background(), &core.Event{
		Type:      core.EventVehicleRegistered,
		VehicleID: "V9",
		Vehicle:   &model.Vehicle{VehicleID: "V9", Model: "X", CurrentVersion: "1.0", OperationalStatus: "active"},
	}))

	sent := c.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "fleet/v1/vehicles/V9", sent[0].topic)
	assert.Contains(t, string(sent[0].payload), `"current_version":"1.0"`)
	assert.NotContains(t, string(sent[0].payload), "update_id")
}

func TestPipelineDeliversInOrderAndDrains(t *testing.T) {
	c := &fakeClient{}
	pl := NewPipeline(NewMQTTPublisher(c, "r"), 16)

	for i := 1; i <= 3; i++ {
		require.NoError(t, pl.Notify(context.Background(), &core.Event{
			Type: core.EventUpdateAssigned, VehicleID: "V1", Update: &model.Update{ID: int64(i)},
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go pl.Start(ctx)
	assert.Eventually(t, func() bool { return len(c.sent()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-pl.Done()

	for i, m := range c.sent() {
		var got message
		require.NoError(t, json.Unmarshal(m.payload, &got))
		assert.Equal(t, int64(i+1), got.UpdateID)
	}
}

func TestPipelineDropsWhenFull(t *testing.T) {
	c := &fakeClient{}
	pl := NewPipeline(NewMQTTPublisher(c, "r"), 1)

	ev := &core.Event{Type: core.EventUpdateFailed, VehicleID: "V1"}
	require.NoError(t, pl.Notify(context.Background(), ev))
	// The worker is not running; the second event has nowhere to go.
	require.NoError(t, pl.Notify(context.Background(), ev))
	assert.Len(t, pl.inputCh, 1)
}

func TestPipelineSurvivesPublishErrors(t *testing.T) {
	c := &fakeClient{err: errors.New("broker down")}
	pl := NewPipeline(NewMQTTPublisher(c, "r"), 4)
	require.NoError(t, pl.Notify(context.Background(), &core.Event{Type: core.EventUpdateFailed, VehicleID: "V1"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pl.Start(ctx)

	assert.Empty(t, c.sent())
	assert.Empty(t, pl.inputCh)
}
