package transfer

import (
	"context"
	"crypto/tls"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/jaywantadh/gwbench/internal/storage"
	"github.com/jaywantadh/gwbench/pkg/logging"
	pb "github.com/jaywantadh/gwbench/proto"
)

// GRPCService implements pb.FileServiceServer on top of a Storage.
type GRPCService struct {
	pb.UnimplementedFileServiceServer

	store  storage.Storage
	logger *logrus.Logger
}

// NewGRPCService creates the FileService implementation.
func NewGRPCService(store storage.Storage, logger *logrus.Logger) *GRPCService {
	return &GRPCService{store: store, logger: logging.Or(logger)}
}

// UploadFile receives a client stream of chunks. The first message names the
// file.
func (s *GRPCService) UploadFile(stream pb.FileService_UploadFileServer) error {
	first, err := stream.Recv()
	if err == io.EOF {
		return stream.SendAndClose(&pb.UploadResponse{Message: "no data received"})
	}
	if err != nil {
		return err
	}

	filename := first.GetFilename()
	log := s.logger.WithFields(logrus.Fields{
		"transfer_id": uuid.New().String(),
		"protocol":    ProtocolGRPC,
		"filename":    filename,
	})

	summary, err := s.store.Store(filename, &messageStream{recv: stream, first: first, filename: filename})
	if err != nil {
		log.WithError(err).Warn("gRPC upload failed")
		return storageStatusError(err)
	}

	log.WithField("bytes", summary.BytesReceived).Info("gRPC upload complete")
	return stream.SendAndClose(&pb.UploadResponse{
		Message:       summary.Message,
		BytesReceived: summary.BytesReceived,
	})
}

// DownloadFile streams a stored file in GRPCServerChunkSize messages.
func (s *GRPCService) DownloadFile(req *pb.DownloadRequest, stream pb.FileService_DownloadFileServer) error {
	filename := req.GetFilename()
	src, err := s.store.Retrieve(filename, GRPCServerChunkSize)
	if errors.Is(err, storage.ErrNotFound) {
		return status.Errorf(codes.NotFound, "file %s not found", filename)
	}
	if err != nil {
		return storageStatusError(err)
	}
	defer src.Close()

	log := s.logger.WithFields(logrus.Fields{
		"protocol": ProtocolGRPC,
		"filename": filename,
	})
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithError(err).Warn("gRPC download interrupted")
			return status.Error(codes.Internal, err.Error())
		}
		if err := stream.Send(&pb.FileChunk{
			Filename:  filename,
			Data:      chunk.Data,
			TotalSize: chunk.TotalSize,
		}); err != nil {
			return err
		}
	}

	log.WithField("bytes", src.Sent()).Info("gRPC download complete")
	return nil
}

// storageStatusError converts a storage or stream error into a gRPC status.
func storageStatusError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidName):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrSizeMismatch):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// GRPCServerOptions configures NewGRPCServer.
type GRPCServerOptions struct {
	// TLS enables transport security when non-nil.
	TLS    *tls.Config
	Pool   *Pool
	Logger *logrus.Logger
}

// NewGRPCServer builds a grpc.Server with the FileService and the standard
// health service registered.
func NewGRPCServer(store storage.Storage, opts GRPCServerOptions) *grpc.Server {
	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
	}
	if opts.TLS != nil {
		serverOpts = append(serverOpts, grpc.Creds(credentials.NewTLS(opts.TLS)))
	}
	if opts.Pool != nil {
		serverOpts = append(serverOpts,
			grpc.ChainStreamInterceptor(opts.Pool.StreamServerInterceptor()),
			grpc.ChainUnaryInterceptor(opts.Pool.UnaryServerInterceptor()),
		)
	}

	srv := grpc.NewServer(serverOpts...)
	pb.RegisterFileServiceServer(srv, NewGRPCService(store, opts.Logger))

	hs := health.NewServer()
	hs.SetServingStatus(pb.FileService_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}
