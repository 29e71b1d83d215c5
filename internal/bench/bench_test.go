package bench

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaywantadh/gwbench/internal/transfer"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

type call struct {
	op   transfer.Operation
	arg  string
	dest string
}

type fakeTransport struct {
	protocol transfer.Protocol
	calls    *[]call
	fail     error
	closed   bool
}

func (f *fakeTransport) Protocol() transfer.Protocol { return f.protocol }

func (f *fakeTransport) Upload(ctx context.Context, filePath string) transfer.TransferResult {
	*f.calls = append(*f.calls, call{op: transfer.OpUpload, arg: filePath})
	return transfer.NewResult(f.protocol, transfer.OpUpload, filepath.Base(filePath), time.Now(), 42, f.fail)
}

func (f *fakeTransport) Download(ctx context.Context, filename, outputPath string) transfer.TransferResult {
	*f.calls = append(*f.calls, call{op: transfer.OpDownload, arg: filename, dest: outputPath})
	return transfer.NewResult(f.protocol, transfer.OpDownload, filename, time.Now(), 42, f.fail)
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func target(p transfer.Protocol, tr *fakeTransport, dialErr error) Target {
	return Target{Protocol: p, Dial: func(ctx context.Context) (transfer.Transport, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		return tr, nil
	}}
}

func TestRunIsSequentialUploadThenDownload(t *testing.T) {
	var calls []call
	httpTr := &fakeTransport{protocol: transfer.ProtocolHTTP, calls: &calls}
	grpcTr := &fakeTransport{protocol: transfer.ProtocolGRPC, calls: &calls}

	o := New([]Target{
		target(transfer.ProtocolHTTP, httpTr, nil),
		target(transfer.ProtocolGRPC, grpcTr, nil),
	}, Options{TestFile: "/tmp/test-1mb.bin", DownloadName: "random-1mb.bin", WorkDir: "/work"}, logging.Discard())

	results := o.Run(context.Background())
	require.Len(t, results, 4)

	assert.Equal(t, []call{
		{op: transfer.OpUpload, arg: "/tmp/test-1mb.bin"},
		{op: transfer.OpDownload, arg: "random-1mb.bin", dest: filepath.Join("/work", "downloaded-http.bin")},
		{op: transfer.OpUpload, arg: "/tmp/test-1mb.bin"},
		{op: transfer.OpDownload, arg: "random-1mb.bin", dest: filepath.Join("/work", "downloaded-grpc.bin")},
	}, calls)
	assert.True(t, httpTr.closed)
	assert.True(t, grpcTr.closed)

	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestRunSkipsOperations(t *testing.T) {
	var calls []call
	tr := &fakeTransport{protocol: transfer.ProtocolGRPC, calls: &calls}
	o := New([]Target{target(transfer.ProtocolGRPC, tr, nil)},
		Options{TestFile: "up.bin", DownloadName: "down.bin", SkipUpload: true}, logging.Discard())

	results := o.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, transfer.OpDownload, results[0].Operation)
}

func TestRunContinuesAfterFailures(t *testing.T) {
	var calls []call
	failing := &fakeTransport{protocol: transfer.ProtocolHTTP, calls: &calls, fail: transfer.ErrServer}
	healthy := &fakeTransport{protocol: transfer.ProtocolGRPC, calls: &calls}

	o := New([]Target{
		target(transfer.ProtocolHTTP, failing, nil),
		target(transfer.ProtocolGRPC, healthy, nil),
	}, Options{TestFile: "up.bin", DownloadName: "down.bin"}, logging.Discard())

	results := o.Run(context.Background())
	require.Len(t, results, 4)
	assert.False(t, results[0].Success)
	assert.Equal(t, transfer.KindServerFailure, results[0].ErrorKind)
	assert.Zero(t, results[0].SpeedMBps)
	assert.True(t, results[2].Success)
	assert.True(t, results[3].Success)
}

func TestRunReportsDialFailure(t *testing.T) {
	o := New([]Target{target(transfer.ProtocolGRPC, nil, errors.New("connection refused"))},
		Options{TestFile: "up.bin", DownloadName: "down.bin", SkipDownload: true}, logging.Discard())

	results := o.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, transfer.OpUpload, results[0].Operation)
	assert.False(t, results[0].Success)
	assert.Equal(t, transfer.KindTransportFailure, results[0].ErrorKind)
	assert.Contains(t, results[0].Error, "connection refused")
}

func TestEnsureTestFile(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureTestFile(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test-2mb.bin"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2*1024*1024), info.Size())
	before := info.ModTime()

	_, err = EnsureTestFile(dir, 2)
	require.NoError(t, err)
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before, info.ModTime(), "an existing file of the right size is reused")
}
