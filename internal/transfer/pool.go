package transfer

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/jaywantadh/gwbench/pkg/logging"
)

// DefaultWorkers is the number of calls a server handles at once.
const DefaultWorkers = 10

// Pool bounds how many calls the server works on concurrently. Each call
// holds one slot from acceptance until it returns; further calls wait for a
// free slot until their own context ends.
type Pool struct {
	sem    *semaphore.Weighted
	size   int
	logger *logrus.Logger
}

// NewPool creates a pool with size slots.
func NewPool(size int, logger *logrus.Logger) *Pool {
	if size <= 0 {
		size = DefaultWorkers
	}
	return &Pool{
		sem:    semaphore.NewWeighted(int64(size)),
		size:   size,
		logger: logging.Or(logger),
	}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return p.size }

// Acquire blocks until a slot is free. The returned func releases it.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { p.sem.Release(1) }, nil
}

// Limit wraps an HTTP handler so that every request occupies one slot.
func (p *Pool) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, err := p.Acquire(r.Context())
		if err != nil {
			WriteErrorResponse(w, http.StatusServiceUnavailable, "server busy")
			return
		}
		defer release()
		next.ServeHTTP(w, r)
	})
}

// StreamServerInterceptor makes every streaming RPC occupy one slot and logs
// its outcome.
func (p *Pool) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		release, err := p.Acquire(ss.Context())
		if err != nil {
			return status.FromContextError(err).Err()
		}
		defer release()

		start := time.Now()
		err = handler(srv, ss)
		p.logger.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     status.Code(err).String(),
			"duration": time.Since(start).String(),
		}).Info("RPC finished")
		return err
	}
}

// UnaryServerInterceptor is the unary counterpart of StreamServerInterceptor.
func (p *Pool) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		release, err := p.Acquire(ctx)
		if err != nil {
			return nil, status.FromContextError(err).Err()
		}
		defer release()
		return handler(ctx, req)
	}
}
