package http

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/internal/otahub/core/ledger"
	middleware "github.com/autopeer-io/otahub/internal/pkg/middleware/http"
	"github.com/autopeer-io/otahub/pkg/log"
	"github.com/autopeer-io/otahub/pkg/options"
)

type Server struct {
	server  *http.Server
	options *options.HttpOptions
}

// NewServer builds the API server. Write routes are guarded by authn,
// reading the credential from authHeader.
func NewServer(opts *options.HttpOptions, svc Service, authn auth.Authenticator, authHeader string, registry prometheus.Gatherer) *Server {
	return &Server{
		server: &http.Server{
			Addr:    opts.Addr,
			Handler: NewRouter(opts, svc, authn, authHeader, registry),
		},
		options: opts,
	}
}

// NewRouter returns the routing table of the API.
func NewRouter(opts *options.HttpOptions, svc Service, authn auth.Authenticator, authHeader string, registry prometheus.Gatherer) http.Handler {
	h := &handler{svc: svc}

	r := mux.NewRouter()
	r.Use(withRequestLogger, middleware.Timeout(opts.Timeout))

	// Probes & metrics
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/vehicles", h.registerVehicle).Methods(http.MethodPost)
	r.HandleFunc("/vehicles", h.listVehicles).Methods(http.MethodGet)
	r.HandleFunc("/vehicles/{vehicle_id}/updates", h.history).Methods(http.MethodGet)

	writes := r.PathPrefix("/updates").Subrouter()
	writes.Use(requireCredential(authn, authHeader))
	writes.HandleFunc("", h.assignUpdate).Methods(http.MethodPost)
	writes.HandleFunc("/{id}/start", h.lifecycle(ledger.EventStart, svc.StartUpdate)).Methods(http.MethodPost)
	writes.HandleFunc("/{id}/complete", h.lifecycle(ledger.EventComplete, svc.CompleteUpdate)).Methods(http.MethodPost)
	writes.HandleFunc("/{id}/fail", h.lifecycle(ledger.EventFail, svc.FailUpdate)).Methods(http.MethodPost)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutting down HTTP Server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
