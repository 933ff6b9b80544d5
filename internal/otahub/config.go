package otahub

import (
	"fmt"
	"os"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/service"
	"github.com/autopeer-io/otahub/internal/otahub/notifier"
	"github.com/autopeer-io/otahub/internal/otahub/server"
	"github.com/autopeer-io/otahub/internal/otahub/store/memory"
	sqlstore "github.com/autopeer-io/otahub/internal/otahub/store/sql"
	"github.com/autopeer-io/otahub/pkg/log"
	"github.com/autopeer-io/otahub/pkg/mqtt"
	"github.com/autopeer-io/otahub/pkg/options"
)

type Config struct {
	HttpOptions  *options.HttpOptions
	StoreOptions *options.StoreOptions
	AuthOptions  *options.AuthOptions
	MqttOptions  *options.MqttOptions
}

func (cfg *Config) NewHubServer() (*HubServer, error) {
	// 1. Infrastructure: Store (Secondary Adapter)
	store, err := NewStore(cfg.StoreOptions)
	if err != nil {
		return nil, err
	}

	// 2. Infrastructure: Notifier (Secondary Adapter)
	hub := &HubServer{store: store}
	var events core.EventNotifier = notifier.Nop{}
	if cfg.MqttOptions.Enabled {
		client, err := InitializeMQTTClient(cfg.MqttOptions)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to init notifier: %w", err)
		}
		hub.mqttClient = client
		hub.pipeline = notifier.NewPipeline(
			notifier.NewMQTTPublisher(client, cfg.MqttOptions.TopicRoot),
			cfg.MqttOptions.QueueSize,
		)
		events = hub.pipeline
	}

	authn, err := auth.New(cfg.AuthOptions)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init authenticator: %w", err)
	}

	// 3. Core Domain Service
	svc := service.New(store, events)

	// 4. Ingress Servers (Primary Adapters)
	serverConfig := &server.Config{
		HttpOptions: cfg.HttpOptions,
		AuthOptions: cfg.AuthOptions,
	}
	hub.serverManager, err = server.NewManager(serverConfig, svc, authn)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init server manager: %w", err)
	}

	return hub, nil
}

// NewStore opens the storage backend selected by opts.
func NewStore(opts *options.StoreOptions) (core.Store, error) {
	switch opts.Driver {
	case options.StoreDriverMemory:
		log.Warn("Using in-memory store; state is lost on restart")
		return memory.New(), nil
	case options.StoreDriverSQLite, options.StoreDriverMySQL:
		s, err := sqlstore.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

func InitializeMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("ota-hub-%s", hostname)
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return client, nil
}
