package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/rolemesh/logging"
)

// Server exposes a registry on /metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   logging.Logger
}

// Serve starts serving gatherer on addr in the background.
func Serve(addr string, gatherer prometheus.Gatherer, logger logging.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s := &Server{
		srv:      &http.Server{Handler: mux},
		listener: ln,
		logger:   logging.OrNoOp(logger),
	}

	go func() {
		s.logger.Info("metrics.server.started", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics.server.failed", "error", err.Error())
		}
	}()

	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string { return s.listener.Addr().String() }

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
