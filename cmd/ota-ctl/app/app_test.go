package app

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/internal/otahub/core/service"
	hubhttp "github.com/autopeer-io/otahub/internal/otahub/server/http"
	"github.com/autopeer-io/otahub/internal/otahub/store/memory"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
	"github.com/autopeer-io/otahub/pkg/options"
)

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--server", server, "--token", "tok"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	router := hubhttp.NewRouter(options.NewHttpOptions(), service.New(memory.New(), nil),
		auth.NewStaticToken("tok"), "X-API-Token", metrics.Registry)
	srv := httptest.NewServer(router)
	defer srv.Close()

	out, err := run(t, srv.URL, "vehicles", "register", "V1", "ModelX", "1.0", "ACTIVE")
	require.NoError(t, err)
	assert.Contains(t, out, "ModelX")

	out, err = run(t, srv.URL, "updates", "assign", "V1", "1.0", "2.0")
	require.NoError(t, err)
	assert.Contains(t, out, "PENDING")

	out, err = run(t, srv.URL, "updates", "start", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "IN_PROGRESS")

	out, err = run(t, srv.URL, "updates", "complete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")

	out, err = run(t, srv.URL, "vehicles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2.0")

	out, err = run(t, srv.URL, "history", "V1")
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")

	_, err = run(t, srv.URL, "updates", "fail", "1")
	assert.ErrorContains(t, err, "Only IN_PROGRESS updates can be failed")

	_, err = run(t, srv.URL, "updates", "start", "one")
	assert.ErrorContains(t, err, "invalid update id")

	_, err = run(t, srv.URL, "history")
	assert.Error(t, err)
}
