// Package report turns benchmark results into a console table and a JSON
// record.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jaywantadh/gwbench/internal/transfer"
)

// Record is the persisted outcome of one benchmark run.
type Record struct {
	Timestamp      string                             `json:"timestamp"`
	FileSizeMB     int                                `json:"file_size_mb"`
	ServerHardware map[string]string                  `json:"server_hardware"`
	HTTP           map[string]transfer.TransferResult `json:"http"`
	GRPC           map[string]transfer.TransferResult `json:"grpc"`
}

// NewRecord groups results by protocol and operation.
func NewRecord(now time.Time, sizeMB int, hardware map[string]string, results []transfer.TransferResult) *Record {
	rec := &Record{
		Timestamp:      now.Format("2006-01-02 15:04:05"),
		FileSizeMB:     sizeMB,
		ServerHardware: hardware,
		HTTP:           map[string]transfer.TransferResult{},
		GRPC:           map[string]transfer.TransferResult{},
	}
	for _, r := range results {
		switch r.Protocol {
		case transfer.ProtocolHTTP:
			rec.HTTP[string(r.Operation)] = r
		case transfer.ProtocolGRPC:
			rec.GRPC[string(r.Operation)] = r
		}
	}
	return rec
}

// Save writes the record as indented JSON.
func (r *Record) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// RenderTable prints the results in run order.
func RenderTable(w io.Writer, sizeMB int, results []transfer.TransferResult) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nBENCHMARK RESULTS - %dMB File\n%s\n", rule, sizeMB, rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Protocol\tOperation\tSpeed (MB/s)\tTime (s)\tStatus\tError")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%s\t%s\n",
			protocolLabel(r.Protocol), operationLabel(r.Operation), r.SpeedMBps, r.Duration, marker(r.Success), r.ErrorKind)
	}
	return tw.Flush()
}

func protocolLabel(p transfer.Protocol) string {
	if p == transfer.ProtocolGRPC {
		return "gRPC"
	}
	return "HTTP"
}

func operationLabel(op transfer.Operation) string {
	if op == transfer.OpDownload {
		return "Download"
	}
	return "Upload"
}

func marker(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}
