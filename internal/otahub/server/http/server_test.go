package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/internal/otahub/core"
	"github.com/autopeer-io/otahub/internal/otahub/core/model"
	"github.com/autopeer-io/otahub/internal/otahub/core/service"
	"github.com/autopeer-io/otahub/internal/otahub/store/memory"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
	"github.com/autopeer-io/otahub/pkg/options"
)

const testToken = "SECRET_OTA_TOKEN"

func newTestRouter(t *testing.T, svc Service) http.Handler {
	t.Helper()
	if svc == nil {
		svc = service.New(memory.New(), nil)
	}
	return NewRouter(options.NewHttpOptions(), svc, auth.NewStaticToken(testToken), "X-API-Token", metrics.Registry)
}

type call struct {
	method string
	path   string
	body   any
	token  string
}

func do(t *testing.T, h http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	switch b := c.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b))
	}

	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-API-Token", c.token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Detail
}

func registerV1(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, call{method: http.MethodPost, path: "/vehicles", body: map[string]string{
		"vehicle_id": "V1", "model": "X", "current_version": "1.0", "status": "ACTIVE",
	}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestRoot(t *testing.T) {
	rec := do(t, newTestRouter(t, nil), call{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"OTA Backend is running"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestVehicleRoutes(t *testing.T) {
	h := newTestRouter(t, nil)
	registerV1(t, h)

	rec := do(t, h, call{method: http.MethodPost, path: "/vehicles", body: map[string]string{
		"vehicle_id": "V1", "model": "X", "current_version": "1.0", "status": "ACTIVE",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Vehicle already exists", detail(t, rec))

	rec = do(t, h, call{method: http.MethodGet, path: "/vehicles"})
	require.Equal(t, http.StatusOK, rec.Code)
	var list []vehicleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "V1", list[0].VehicleID)
	assert.Equal(t, "ACTIVE", list[0].Status)
}

func TestRequestValidation(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name string
		c    call
		want string
	}{
		{
			name: "missing field",
			c:    call{method: http.MethodPost, path: "/vehicles", body: map[string]string{"vehicle_id": "V1", "model": "X", "status": "ACTIVE"}},
			want: `field "current_version" is required`,
		},
		{
			name: "malformed json",
			c:    call{method: http.MethodPost, path: "/vehicles", body: "{"},
			want: "invalid request body",
		},
		{
			name: "wrong type",
			c:    call{method: http.MethodPost, path: "/updates", token: testToken, body: `{"vehicle_id":1,"from_version":"1","to_version":"2"}`},
			want: "invalid request body",
		},
		{
			name: "update missing to_version",
			c:    call{method: http.MethodPost, path: "/updates", token: testToken, body: map[string]string{"vehicle_id": "V1", "from_version": "1.0"}},
			want: `field "to_version" is required`,
		},
		{
			name: "non numeric id",
			c:    call{method: http.MethodPost, path: "/updates/abc/start", token: testToken},
			want: "update id must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.c)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, detail(t, rec), tt.want)
		})
	}
}

func TestEmptyStringsAreAccepted(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := do(t, h, call{method: http.MethodPost, path: "/vehicles", body: map[string]string{
		"vehicle_id": "V2", "model": "", "current_version": "", "status": "",
	}})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestWriteRoutesRequireCredential(t *testing.T) {
	h := newTestRouter(t, nil)
	registerV1(t, h)

	for _, c := range []call{
		{method: http.MethodPost, path: "/updates", body: map[string]string{"vehicle_id": "V1", "from_version": "1.0", "to_version": "2.0"}},
		{method: http.MethodPost, path: "/updates", token: "wrong", body: map[string]string{"vehicle_id": "V1", "from_version": "1.0", "to_version": "2.0"}},
		{method: http.MethodPost, path: "/updates/1/start"},
		{method: http.MethodPost, path: "/updates/1/complete", token: "wrong"},
		{method: http.MethodPost, path: "/updates/1/fail"},
	} {
		rec := do(t, h, c)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, c.path)
		assert.Equal(t, "Unauthorized", detail(t, rec))
	}

	// Nothing was assigned.
	rec := do(t, h, call{method: http.MethodGet, path: "/vehicles/V1/updates"})
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)
	registerV1(t, h)

	assign := func(from, to string) *httptest.ResponseRecorder {
		return do(t, h, call{method: http.MethodPost, path: "/updates", token: testToken,
			body: map[string]string{"vehicle_id": "V1", "from_version": from, "to_version": to}})
	}

	rec := assign("1.0", "2.0")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var u updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "PENDING", u.Status)

	rec = assign("1.0", "3.0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "An OTA update is already active for this vehicle", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/1/complete", token: testToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTA update is not in progress", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/1/fail", token: testToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only IN_PROGRESS updates can be failed", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/1/start", token: testToken})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "IN_PROGRESS", u.Status)

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/1/start", token: testToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OTA update cannot be started", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/1/complete", token: testToken})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "COMPLETED", u.Status)

	rec = assign("1.0", "3.0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Version mismatch: vehicle is on 2.0", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates/77/start", token: testToken})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "OTA update not found", detail(t, rec))

	rec = do(t, h, call{method: http.MethodPost, path: "/updates", token: testToken,
		body: map[string]string{"vehicle_id": "ghost", "from_version": "1.0", "to_version": "2.0"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Vehicle not found", detail(t, rec))
}

func TestHistoryRoute(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, call{method: http.MethodGet, path: "/vehicles/ghost/updates"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Vehicle not found", detail(t, rec))

	registerV1(t, h)
	rec = do(t, h, call{method: http.MethodGet, path: "/vehicles/V1/updates"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, path := range []string{"/updates", "/updates/1/start", "/updates/1/fail", "/updates"} {
		rec = do(t, h, call{method: http.MethodPost, path: path, token: testToken,
			body: map[string]string{"vehicle_id": "V1", "from_version": "1.0", "to_version": "2.0"}})
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = do(t, h, call{method: http.MethodGet, path: "/vehicles/V1/updates"})
	require.Equal(t, http.StatusOK, rec.Code)
	var history []updateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, int64(2), history[0].ID)
	assert.Equal(t, "PENDING", history[0].Status)
	assert.Equal(t, int64(1), history[1].ID)
	assert.Equal(t, "FAILED", history[1].Status)
}

type failingService struct {
	Service
	err error
}

func (f failingService) ListVehicles(context.Context) ([]*model.Vehicle, error) { return nil, f.err }
func (f failingService) Ready(context.Context) error                            { return f.err }

func TestStorageFailureIsOpaque(t *testing.T) {
	h := newTestRouter(t, failingService{err: core.StorageFailure(errors.New("connection refused: 10.0.0.5"))})

	rec := do(t, h, call{method: http.MethodGet, path: "/vehicles"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", detail(t, rec))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")

	rec = do(t, h, call{method: http.MethodGet, path: "/readyz"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProbesAndMetrics(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, call{method: http.MethodGet, path: "/readyz"})
	assert.Equal(t, http.StatusOK, rec.Code)

	registerV1(t, h)
	rec = do(t, h, call{method: http.MethodGet, path: "/metrics"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "otahub_operations_total"))
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		event  string
		status int
		detail string
	}{
		{core.ErrDuplicateVehicle, "", http.StatusConflict, detailVehicleExists},
		{core.ErrVehicleNotFound, "complete", http.StatusNotFound, detailVehicleNotFound},
		{&core.VersionMismatchError{Actual: "3.1"}, "", http.StatusBadRequest, "Version mismatch: vehicle is on 3.1"},
		{&core.TransitionError{Event: "start"}, "start", http.StatusBadRequest, detailCannotStart},
		{errors.New("boom"), "", http.StatusInternalServerError, detailInternal},
	}
	for _, tt := range tests {
		status, d := errorStatus(tt.err, tt.event)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.detail, d)
	}
}

func TestServerStartAndShutdown(t *testing.T) {
	opts := options.NewHttpOptions()
	opts.Addr = "127.0.0.1:0"
	srv := NewServer(opts, service.New(memory.New(), nil), auth.NewStaticToken(testToken), "X-API-Token", metrics.Registry)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
