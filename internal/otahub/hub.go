package otahub

import (
	"context"
	"time"

	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/notifier"
	"github.com/autopeer-io/otahub/internal/otahub/server"
	"github.com/autopeer-io/otahub/pkg/log"
	"github.com/autopeer-io/otahub/pkg/mqtt"
)

const disconnectTimeout = 5 * time.Second

type HubServer struct {
	serverManager *server.Manager
	store         core.Store

	// Set only when the MQTT event feed is enabled.
	mqttClient mqtt.Client
	pipeline   *notifier.Pipeline
}

// Run starts the application components and blocks until ctx is done or a
// server fails.
func (h *HubServer) Run(ctx context.Context) error {
	log.Info("Starting OTA Hub...")

	// The pipeline outlives the servers so that events committed by the
	// last requests are still drained.
	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	defer stopPipeline()
	clientCtx, stopClient := context.WithCancel(context.Background())
	defer stopClient()

	if h.mqttClient != nil {
		if err := h.mqttClient.Start(clientCtx); err != nil {
			return err
		}
		go h.pipeline.Start(pipelineCtx)
	}

	err := h.serverManager.Start(ctx)

	if h.pipeline != nil {
		stopPipeline()
		<-h.pipeline.Done()

		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		h.mqttClient.Disconnect(dctx)
		cancel()
		stopClient()
	}

	if cerr := h.store.Close(); cerr != nil {
		log.Error(cerr, "Failed to close store")
	}
	log.Info("OTA Hub stopped")

	return err
}
