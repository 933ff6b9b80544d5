package otahub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/otahub/internal/otahub/store/memory"
	"github.com/autopeer-io/otahub/pkg/options"
)

func testConfig(t *testing.T) *Config {
	httpOpts := options.NewHttpOptions()
	httpOpts.Addr = "127.0.0.1:0"
	authOpts := options.NewAuthOptions()
	authOpts.APIToken = "SECRET_OTA_TOKEN"
	return &Config{
		HttpOptions:  httpOpts,
		StoreOptions: options.NewStoreOptions(),
		AuthOptions:  authOpts,
		MqttOptions:  options.NewMqttOptions(),
	}
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(options.NewStoreOptions())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	opts := options.NewStoreOptions()
	opts.Driver = options.StoreDriverSQLite
	opts.DSN = "file:" + t.TempDir() + "/hub.db"
	s, err = NewStore(opts)
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())

	opts.Driver = "etcd"
	_, err = NewStore(opts)
	assert.Error(t, err)
}

func TestHubRunsUntilCanceled(t *testing.T) {
	hub, err := testConfig(t).NewHubServer()
	require.NoError(t, err)
	assert.Nil(t, hub.pipeline, "mqtt feed is off by default")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}
}

func TestNewHubServerRequiresCredential(t *testing.T) {
	cfg := testConfig(t)
	cfg.AuthOptions.APIToken = ""
	_, err := cfg.NewHubServer()
	assert.Error(t, err)
}
