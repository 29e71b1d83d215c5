package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Protocol names a wire protocol under test.
type Protocol string

const (
	ProtocolHTTP Protocol = "http"
	ProtocolGRPC Protocol = "grpc"
)

// Operation is the direction of a transfer.
type Operation string

const (
	OpUpload   Operation = "upload"
	OpDownload Operation = "download"
)

// Transport moves whole files to and from a file server over one protocol.
// Failures never surface as errors: they are reported in the result.
type Transport interface {
	Protocol() Protocol
	// Upload sends the local file at filePath under its base name.
	Upload(ctx context.Context, filePath string) TransferResult
	// Download fetches filename from the server into outputPath.
	Download(ctx context.Context, filename, outputPath string) TransferResult
	Close() error
}

// TransferResult is the timed outcome of a single upload or download.
type TransferResult struct {
	Protocol   Protocol  `json:"protocol"`
	Operation  Operation `json:"operation"`
	Filename   string    `json:"filename"`
	Duration   float64   `json:"duration"`
	BytesMoved int64     `json:"bytes_moved"`
	SpeedMBps  float64   `json:"speed_mbps"`
	Success    bool      `json:"success"`
	ErrorKind  Kind      `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewResult builds a result for a call that started at start. err == nil
// marks success; only successful calls with a positive duration get a speed.
func NewResult(protocol Protocol, op Operation, filename string, start time.Time, bytesMoved int64, err error) TransferResult {
	res := TransferResult{
		Protocol:   protocol,
		Operation:  op,
		Filename:   filename,
		Duration:   time.Since(start).Seconds(),
		BytesMoved: bytesMoved,
		Success:    err == nil,
	}
	if err != nil {
		res.ErrorKind = Classify(err)
		res.Error = err.Error()
		return res
	}
	res.SpeedMBps = Speed(bytesMoved, res.Duration)
	return res
}

// Speed converts bytes over seconds to MiB/s.
func Speed(bytes int64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(bytes) / seconds / (1024 * 1024)
}

func logResult(logger *logrus.Logger, res TransferResult) {
	log := logger.WithFields(logrus.Fields{
		"protocol":  res.Protocol,
		"operation": res.Operation,
		"filename":  res.Filename,
		"bytes":     res.BytesMoved,
	})
	if !res.Success {
		log.WithField("error_kind", res.ErrorKind).Warn(res.Error)
		return
	}
	log.WithField("speed_mbps", fmt.Sprintf("%.2f", res.SpeedMBps)).Info("Transfer complete")
}
