// Package bench runs one upload and one download per protocol and collects
// the timed results.
package bench

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/internal/transfer"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

// Dialer opens a transport for one protocol.
type Dialer func(ctx context.Context) (transfer.Transport, error)

// Target is a protocol to benchmark.
type Target struct {
	Protocol transfer.Protocol
	Dial     Dialer
}

// Options selects what each target runs.
type Options struct {
	// TestFile is uploaded by every target.
	TestFile string
	// DownloadName is the server-resident file every target downloads.
	DownloadName string
	// WorkDir receives downloaded-<protocol>.bin.
	WorkDir      string
	SkipUpload   bool
	SkipDownload bool
}

// Orchestrator runs targets strictly one after another.
type Orchestrator struct {
	targets []Target
	opts    Options
	logger  *logrus.Logger
}

func New(targets []Target, opts Options, logger *logrus.Logger) *Orchestrator {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	return &Orchestrator{targets: targets, opts: opts, logger: logging.Or(logger)}
}

// Run executes every scheduled transfer and returns their results in order.
// A failing transfer, or a target that cannot be dialled, never stops the
// run; skipped operations produce no result.
func (o *Orchestrator) Run(ctx context.Context) []transfer.TransferResult {
	var results []transfer.TransferResult
	for _, target := range o.targets {
		results = append(results, o.runTarget(ctx, target)...)
	}
	return results
}

func (o *Orchestrator) runTarget(ctx context.Context, target Target) []transfer.TransferResult {
	log := o.logger.WithField("protocol", target.Protocol)
	log.Info("Starting benchmark")

	uploadName := filepath.Base(o.opts.TestFile)
	start := time.Now()
	tr, err := target.Dial(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to set up transport")
		var failed []transfer.TransferResult
		if !o.opts.SkipUpload {
			failed = append(failed, transfer.NewResult(target.Protocol, transfer.OpUpload, uploadName, start, 0, err))
		}
		if !o.opts.SkipDownload {
			failed = append(failed, transfer.NewResult(target.Protocol, transfer.OpDownload, o.opts.DownloadName, start, 0, err))
		}
		return failed
	}
	defer tr.Close()

	var results []transfer.TransferResult
	if !o.opts.SkipUpload {
		results = append(results, tr.Upload(ctx, o.opts.TestFile))
	}
	if !o.opts.SkipDownload {
		out := filepath.Join(o.opts.WorkDir, fmt.Sprintf("downloaded-%s.bin", target.Protocol))
		results = append(results, tr.Download(ctx, o.opts.DownloadName, out))
	}
	return results
}

// EnsureTestFile returns dir/test-<sizeMB>mb.bin, filling it with random
// bytes first unless a file of the right size is already there.
func EnsureTestFile(dir string, sizeMB int) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("test-%dmb.bin", sizeMB))
	size := int64(sizeMB) * 1024 * 1024
	if info, err := os.Stat(path); err == nil && info.Size() == size {
		return path, nil
	}

	if err := WriteRandomFile(path, size); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRandomFile atomically writes size random bytes to path.
func WriteRandomFile(path string, size int64) error {
	sink, err := chunker.NewSink(path)
	if err != nil {
		return err
	}
	src := chunker.NewSource(io.LimitReader(rand.Reader, size), filepath.Base(path), size, chunker.DefaultChunkSize)
	if _, err := chunker.Drain(src, sink, nil); err != nil {
		return fmt.Errorf("failed to write test file: %w", err)
	}
	return nil
}
