package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/pkg/logging"
)

// ShutdownTimeout bounds how long in-flight requests get once the serving
// context ends.
const ShutdownTimeout = 10 * time.Second

// Server is an http.Server bound to a context: it stops gracefully when the
// context passed to Serve is cancelled.
type Server struct {
	srv    *http.Server
	logger *logrus.Logger
}

// New wraps handler. tlsConfig may be nil for plaintext.
func New(addr string, handler http.Handler, tlsConfig *tls.Config, logger *logrus.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			TLSConfig:         tlsConfig,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logging.Or(logger),
	}
}

// ListenAndServe listens on the configured address and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx ends, then shuts down.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	if s.srv.TLSConfig != nil {
		lis = tls.NewListener(lis, s.srv.TLSConfig)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithFields(logrus.Fields{
			"addr": lis.Addr().String(),
			"tls":  s.srv.TLSConfig != nil,
		}).Info("HTTP server listening")
		errCh <- s.srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
