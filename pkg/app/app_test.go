package app

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/otahub/pkg/options"
)

type testOptions struct {
	HttpOptions  *options.HttpOptions  `mapstructure:"http"`
	StoreOptions *options.StoreOptions `mapstructure:"store"`

	completed bool
	invalid   error
}

func newTestOptions() *testOptions {
	return &testOptions{HttpOptions: options.NewHttpOptions(), StoreOptions: options.NewStoreOptions()}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.StoreOptions.AddFlags(fss.FlagSet("store"))
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return o.invalid }

func execute(t *testing.T, opts *testOptions, args ...string) (bool, error) {
	t.Helper()
	ran := false
	a := NewApp("ota-test", "test app",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	cmd := a.Command()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return ran, cmd.Execute()
}

func TestFlagsOverrideDefaults(t *testing.T) {
	opts := newTestOptions()
	ran, err := execute(t, opts, "--http.addr=127.0.0.1:9999", "--store.driver=sqlite")
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, opts.completed)
	assert.Equal(t, "127.0.0.1:9999", opts.HttpOptions.Addr)
	assert.Equal(t, "sqlite", opts.StoreOptions.Driver)
	assert.Equal(t, 30*time.Second, opts.HttpOptions.Timeout, "defaults survive")
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "hub.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("http:\n  addr: 10.0.0.1:8000\n  timeout: 5s\nstore:\n  driver: mysql\n"), 0o600))
	t.Setenv("OTATEST_STORE_DRIVER", "sqlite")

	opts := newTestOptions()
	_, err := execute(t, opts, "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8000", opts.HttpOptions.Addr)
	assert.Equal(t, 5*time.Second, opts.HttpOptions.Timeout)
	assert.Equal(t, "sqlite", opts.StoreOptions.Driver, "environment wins over the file")

	opts = newTestOptions()
	_, err = execute(t, opts, "--config", cfg, "--store.driver=memory")
	require.NoError(t, err)
	assert.Equal(t, "memory", opts.StoreOptions.Driver, "flags win over everything")
}

func TestValidationStopsRun(t *testing.T) {
	opts := newTestOptions()
	opts.invalid = errors.New("bad")
	ran, err := execute(t, opts)
	assert.Error(t, err)
	assert.False(t, ran)
}

func TestRejectsPositionalArgs(t *testing.T) {
	_, err := execute(t, newTestOptions(), "extra")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, newTestOptions(), "--config", "/nonexistent/hub.yaml")
	assert.Error(t, err)
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "OTAHUB", envPrefix("ota-hub"))
	assert.Equal(t, "OTACTL", envPrefix("ota_ctl"))
}
