//go:build linux
// +build linux

package node

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/OmriNaor/chatServer/config"
	"github.com/OmriNaor/chatServer/log"
	"github.com/OmriNaor/chatServer/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	cfg       *config.Config
	transform Transform
}

func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

// SetTransform replaces the default upper-case transform.
func (s *Server) SetTransform(transform Transform) {
	s.transform = transform
}

// Run listens, starts the dispatch loop and, when enabled, the metrics
// endpoint, and blocks until ctx is cancelled or the loop dies.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp4", s.cfg.Addr())
	if err != nil {
		log.Logger.Error("listen error", zap.Error(err))
		return err
	}
	defer ln.Close()

	reactor, err := NewReactor(ctx, ln, s.transform, s.cfg.Server.ReadBufferSize)
	if err != nil {
		return err
	}

	log.Logger.Info("listening", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(reactor.Run)

	if s.cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(s.cfg.Metrics.Path, metrics.Handler())
		msrv := &http.Server{Addr: s.cfg.MetricsAddr(), Handler: mux}

		g.Go(func() error {
			log.Logger.Info("metrics listening", zap.String("addr", msrv.Addr))
			if err := msrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return msrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Logger.Info("shutting down server")
	return err
}
