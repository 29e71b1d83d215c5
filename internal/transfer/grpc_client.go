package transfer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/pkg/logging"
	pb "github.com/jaywantadh/gwbench/proto"
)

// GRPCClientOptions configures DialGRPC.
type GRPCClientOptions struct {
	// Addr is the server host:port.
	Addr string
	// Timeout bounds each whole call; zero means DefaultGRPCTimeout.
	Timeout  time.Duration
	TLS      TLSOptions
	Progress *Progress
	Logger   *logrus.Logger
	// DialOptions are appended after the defaults.
	DialOptions []grpc.DialOption
}

// GRPCClient is the gRPC implementation of Transport.
type GRPCClient struct {
	conn     *grpc.ClientConn
	client   pb.FileServiceClient
	timeout  time.Duration
	progress *Progress
	logger   *logrus.Logger
}

// DialGRPC sets up a channel to opts.Addr. With TLS enabled the trusted roots
// are resolved first; the channel itself connects lazily.
func DialGRPC(ctx context.Context, opts GRPCClientOptions) (*GRPCClient, error) {
	log := logging.Or(opts.Logger)

	tlsConfig, err := ClientTLSConfig(ctx, opts.Addr, opts.TLS, log)
	if err != nil {
		return nil, err
	}
	creds := insecure.NewCredentials()
	if tlsConfig != nil {
		creds = credentials.NewTLS(tlsConfig)
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	}, opts.DialOptions...)

	conn, err := grpc.NewClient(opts.Addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC channel: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultGRPCTimeout
	}
	return &GRPCClient{
		conn:     conn,
		client:   pb.NewFileServiceClient(conn),
		timeout:  timeout,
		progress: opts.Progress,
		logger:   log,
	}, nil
}

func (c *GRPCClient) Protocol() Protocol { return ProtocolGRPC }

// Upload streams the file in GRPCClientChunkSize messages.
func (c *GRPCClient) Upload(ctx context.Context, filePath string) TransferResult {
	filename := filepath.Base(filePath)
	start := time.Now()
	sent, err := c.upload(ctx, filePath, filename)
	res := NewResult(ProtocolGRPC, OpUpload, filename, start, sent, err)
	logResult(c.logger, res)
	return res
}

func (c *GRPCClient) upload(ctx context.Context, filePath, filename string) (int64, error) {
	src, err := chunker.Open(filePath, GRPCClientChunkSize)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	tracker := c.progress.track("gRPC upload", src.TotalSize())
	defer tracker.finish()
	src.Observe(tracker.observer())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.UploadFile(ctx)
	if err != nil {
		return 0, err
	}

	messages := 0
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return src.Sent(), err
		}
		if err := c.send(stream, filename, chunk.Data, chunk.TotalSize); err != nil {
			return src.Sent(), err
		}
		messages++
	}
	// An empty file still needs one message so the server learns its name.
	if messages == 0 {
		if err := c.send(stream, filename, nil, 0); err != nil {
			return 0, err
		}
	}

	resp, err := stream.CloseAndRecv()
	if err != nil {
		return src.Sent(), err
	}
	if resp.GetBytesReceived() != src.Sent() {
		// Report what actually landed on the server, not what was sent.
		return resp.GetBytesReceived(), fmt.Errorf("%w: server received %d of %d bytes", ErrServer, resp.GetBytesReceived(), src.Sent())
	}
	return resp.GetBytesReceived(), nil
}

// send writes one message. When the server has already closed the stream,
// the call's real status is fetched instead of the bare io.EOF.
func (c *GRPCClient) send(stream pb.FileService_UploadFileClient, filename string, data []byte, total int64) error {
	err := stream.Send(&pb.FileChunk{Filename: filename, Data: data, TotalSize: total})
	if err == io.EOF {
		_, err = stream.CloseAndRecv()
	}
	return err
}

// Download receives filename as a server stream and writes it to outputPath.
func (c *GRPCClient) Download(ctx context.Context, filename, outputPath string) TransferResult {
	start := time.Now()
	received, err := c.download(ctx, filename, outputPath)
	res := NewResult(ProtocolGRPC, OpDownload, filename, start, received, err)
	logResult(c.logger, res)
	return res
}

func (c *GRPCClient) download(ctx context.Context, filename, outputPath string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream, err := c.client.DownloadFile(ctx, &pb.DownloadRequest{Filename: filename})
	if err != nil {
		return 0, err
	}

	// The first receive surfaces NOT_FOUND before any file is created.
	first, err := stream.Recv()
	if err != nil && err != io.EOF {
		return 0, err
	}

	sink, err := chunker.NewSink(outputPath)
	if err != nil {
		return 0, err
	}

	tracker := c.progress.track("gRPC download", first.GetTotalSize())
	defer tracker.finish()

	msgs := &messageStream{recv: stream, first: first, filename: filename, eof: first == nil}
	return chunker.Drain(chunker.VerifySize(msgs), sink, tracker.observer())
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
