package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server exposes the default prometheus registry over HTTP and refreshes
// derived gauges on a fixed interval.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger

	wg   sync.WaitGroup
	quit chan struct{}
}

// Start serves /metrics on addr. If refresh is not nil it is called every
// interval until Stop.
func Start(addr string, interval time.Duration, refresh func(), logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
		quit:   make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("Metrics server is starting", zap.String("addr", addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	if refresh != nil && interval > 0 {
		s.wg.Add(1)
		go s.refreshLoop(interval, refresh)
	}

	return s
}

func (s *Server) refreshLoop(interval time.Duration, refresh func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			refresh()
		case <-s.quit:
			return
		}
	}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Stopping metrics server")
	close(s.quit)
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Metrics server shutdown failed", zap.Error(err))
	} else {
		s.logger.Info("Metrics server stopped gracefully")
	}
	s.wg.Wait()
}
