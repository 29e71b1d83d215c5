package transfer

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jaywantadh/gwbench/pkg/logging"
	pb "github.com/jaywantadh/gwbench/proto"
)

// serveBufconn runs srv on an in-memory listener and returns a client for it.
func serveBufconn(t *testing.T, srv *grpc.Server, timeout time.Duration) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := DialGRPC(context.Background(), GRPCClientOptions{
		Addr:    "passthrough:///bufnet",
		Timeout: timeout,
		Logger:  logging.Discard(),
		DialOptions: []grpc.DialOption{
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func newGRPCFixture(t *testing.T) (string, *GRPCClient) {
	t.Helper()
	store := newLocalStorage(t)
	srv := NewGRPCServer(store, GRPCServerOptions{
		Pool:   NewPool(2, logging.Discard()),
		Logger: logging.Discard(),
	})
	return store.Root(), serveBufconn(t, srv, 0)
}

func TestGRPCRoundTrip(t *testing.T) {
	root, client := newGRPCFixture(t)
	path, data := writeRandomFile(t, t.TempDir(), "payload.bin", tenMiB)

	up := client.Upload(context.Background(), path)
	require.True(t, up.Success, up.Error)
	assert.Equal(t, ProtocolGRPC, up.Protocol)
	assert.Equal(t, int64(10485760), up.BytesMoved)

	stored, err := os.ReadFile(filepath.Join(root, "payload.bin"))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	out := filepath.Join(t.TempDir(), "downloaded-grpc.bin")
	down := client.Download(context.Background(), "payload.bin", out)
	require.True(t, down.Success, down.Error)
	assert.Equal(t, int64(tenMiB), down.BytesMoved)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestGRPCZeroByteUpload(t *testing.T) {
	root, client := newGRPCFixture(t)
	path, _ := writeRandomFile(t, t.TempDir(), "empty.bin", 0)

	up := client.Upload(context.Background(), path)
	require.True(t, up.Success, up.Error)
	assert.Zero(t, up.BytesMoved)

	info, err := os.Stat(filepath.Join(root, "empty.bin"))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	out := filepath.Join(t.TempDir(), "empty-out.bin")
	down := client.Download(context.Background(), "empty.bin", out)
	require.True(t, down.Success, down.Error)

	info, err = os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestGRPCDownloadMissingFile(t *testing.T) {
	_, client := newGRPCFixture(t)

	out := filepath.Join(t.TempDir(), "never.bin")
	res := client.Download(context.Background(), "never-uploaded.bin", out)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.ErrorKind)
	assert.Contains(t, res.Error, "file never-uploaded.bin not found")
	assert.Zero(t, res.BytesMoved)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestGRPCRejectsUnsafeName(t *testing.T) {
	_, client := newGRPCFixture(t)
	path, _ := writeRandomFile(t, t.TempDir(), ".hidden", 16)

	res := client.Upload(context.Background(), path)
	assert.False(t, res.Success)
	assert.Equal(t, KindInvalidInput, res.ErrorKind)
}

type stallingService struct {
	pb.UnimplementedFileServiceServer
}

func (stallingService) DownloadFile(_ *pb.DownloadRequest, stream pb.FileService_DownloadFileServer) error {
	<-stream.Context().Done()
	return stream.Context().Err()
}

func TestGRPCTimeout(t *testing.T) {
	srv := grpc.NewServer()
	pb.RegisterFileServiceServer(srv, stallingService{})

	timeout := 200 * time.Millisecond
	client := serveBufconn(t, srv, timeout)

	res := client.Download(context.Background(), "slow.bin", filepath.Join(t.TempDir(), "slow.bin"))
	assert.False(t, res.Success)
	assert.Equal(t, KindTimeout, res.ErrorKind)
	assert.GreaterOrEqual(t, res.Duration, timeout.Seconds())
}

func TestGRPCHealth(t *testing.T) {
	_, client := newGRPCFixture(t)

	resp, err := healthpb.NewHealthClient(client.conn).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: pb.FileService_ServiceDesc.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

// eightMiB is above gRPC's built-in 4 MiB message ceiling.
const eightMiB = 8 * 1024 * 1024

func TestGRPCAcceptsLargeUploadMessage(t *testing.T) {
	root, client := newGRPCFixture(t)
	_, data := writeRandomFile(t, t.TempDir(), "big.bin", eightMiB)

	stream, err := pb.NewFileServiceClient(client.conn).UploadFile(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.FileChunk{Filename: "big.bin", Data: data, TotalSize: int64(len(data))}))

	resp, err := stream.CloseAndRecv()
	require.NoError(t, err, "code %s", status.Code(err))
	assert.Equal(t, int64(eightMiB), resp.GetBytesReceived())

	stored, err := os.ReadFile(filepath.Join(root, "big.bin"))
	require.NoError(t, err)
	assert.Equal(t, data, stored)
}

// bigChunkService answers every download with one oversized message.
type bigChunkService struct {
	pb.UnimplementedFileServiceServer
	data []byte
}

func (s bigChunkService) DownloadFile(req *pb.DownloadRequest, stream pb.FileService_DownloadFileServer) error {
	return stream.Send(&pb.FileChunk{Filename: req.GetFilename(), Data: s.data, TotalSize: int64(len(s.data))})
}

func TestGRPCAcceptsLargeDownloadMessage(t *testing.T) {
	_, data := writeRandomFile(t, t.TempDir(), "big.bin", eightMiB)

	srv := grpc.NewServer(grpc.MaxSendMsgSize(MaxMessageSize))
	pb.RegisterFileServiceServer(srv, bigChunkService{data: data})
	client := serveBufconn(t, srv, 0)

	out := filepath.Join(t.TempDir(), "big-out.bin")
	res := client.Download(context.Background(), "big.bin", out)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, int64(eightMiB), res.BytesMoved)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestGRPCDeclaredSizeMismatch(t *testing.T) {
	root, client := newGRPCFixture(t)

	stream, err := pb.NewFileServiceClient(client.conn).UploadFile(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.FileChunk{Filename: "short.bin", Data: make([]byte, 10), TotalSize: 100}))

	_, err = stream.CloseAndRecv()
	require.Error(t, err)
	assert.Equal(t, codes.DataLoss, status.Code(err))
	assert.Equal(t, KindServerFailure, Classify(err))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGRPCInvalidNameStatus(t *testing.T) {
	root, client := newGRPCFixture(t)

	stream, err := pb.NewFileServiceClient(client.conn).UploadFile(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Send(&pb.FileChunk{Filename: "../escape.bin", Data: []byte("x"), TotalSize: 1}))

	_, err = stream.CloseAndRecv()
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = os.Stat(filepath.Join(filepath.Dir(root), "escape.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestGRPCUploadWaitsForPoolSlot(t *testing.T) {
	store := newLocalStorage(t)
	pool := NewPool(1, logging.Discard())
	release, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	srv := NewGRPCServer(store, GRPCServerOptions{Pool: pool, Logger: logging.Discard()})
	client := serveBufconn(t, srv, 200*time.Millisecond)
	path, _ := writeRandomFile(t, t.TempDir(), "queued.bin", 1024)

	res := client.Upload(context.Background(), path)
	assert.False(t, res.Success)
	assert.Equal(t, KindTimeout, res.ErrorKind)
	_, err = os.Stat(filepath.Join(store.Root(), "queued.bin"))
	assert.True(t, os.IsNotExist(err))

	release()
	res = client.Upload(context.Background(), path)
	assert.True(t, res.Success, res.Error)
}
