package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/otahub/internal/otahub/auth"
	"github.com/autopeer-io/otahub/internal/otahub/core/service"
	"github.com/autopeer-io/otahub/internal/otahub/server/http"
	"github.com/autopeer-io/otahub/internal/pkg/metrics"
	"github.com/autopeer-io/otahub/pkg/log"
)

// Server defines the common interface for all sub-servers.
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all protocol servers.
type Manager struct {
	servers []Server
}

// NewManager creates a new server manager and initializes all sub-servers.
func NewManager(cfg *Config, svc *service.Service, authn auth.Authenticator) (*Manager, error) {
	var servers []Server

	// HTTP API, probes & metrics
	httpSrv := http.NewServer(cfg.HttpOptions, svc, authn, cfg.AuthOptions.Header, metrics.Registry)
	servers = append(servers, httpSrv)

	return &Manager{
		servers: servers,
	}, nil
}

// Start launches all servers in parallel and waits for termination. The
// first server to fail stops the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
