package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jaywantadh/gwbench/config"
	"github.com/jaywantadh/gwbench/internal/bench"
	"github.com/jaywantadh/gwbench/internal/report"
	"github.com/jaywantadh/gwbench/internal/transfer"
	"github.com/jaywantadh/gwbench/pkg/env"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "gwbench",
	Short: "Compare HTTP and gRPC file transfer throughput",
	Long: `gwbench uploads a random test file and downloads a server-resident file
over HTTP and over gRPC, one transfer at a time, then prints a comparison
table and writes the results as JSON.

The HTTP URL scheme decides whether HTTP uses TLS; --tls applies to gRPC.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configDir, "config-dir", ".", "directory holding config.yaml")
	f.Bool("debug", false, "enable debug logging")
	f.String("http-url", "https://localhost:8080", "HTTP server base URL")
	f.String("grpc-addr", "localhost:50051", "gRPC server host:port")
	f.Bool("tls", true, "use TLS for gRPC")
	f.Bool("verify-tls", true, "verify server certificates")
	f.String("ca-file", "", "PEM file with trusted certificates")
	f.Bool("fetch-peer-cert", false, "trust the certificate the server presents")
	f.Duration("http-timeout", transfer.DefaultHTTPTimeout, "deadline for each HTTP transfer")
	f.Duration("grpc-timeout", transfer.DefaultGRPCTimeout, "deadline for each gRPC transfer")
	f.Int("size", 200, "test file size in MB")
	f.String("download-name", "", "server file to download (default random-<size>mb.bin)")
	f.String("work-dir", ".", "directory for the test file and downloads")
	f.Bool("skip-http", false, "skip HTTP tests")
	f.Bool("skip-grpc", false, "skip gRPC tests")
	f.Bool("skip-upload", false, "skip upload tests")
	f.Bool("skip-download", false, "skip download tests")
	f.Bool("progress", true, "show progress bars")
	f.String("results", "benchmark_results.json", "where to write the JSON results")

	for key, flag := range map[string]string{
		"debug":                  "debug",
		"client.http_url":        "http-url",
		"client.grpc_addr":       "grpc-addr",
		"client.tls":             "tls",
		"client.verify_tls":      "verify-tls",
		"client.ca_file":         "ca-file",
		"client.fetch_peer_cert": "fetch-peer-cert",
		"client.http_timeout":    "http-timeout",
		"client.grpc_timeout":    "grpc-timeout",
		"client.size_mb":         "size",
		"client.download_name":   "download-name",
		"client.work_dir":        "work-dir",
		"client.skip_http":       "skip-http",
		"client.skip_grpc":       "skip-grpc",
		"client.skip_upload":     "skip-upload",
		"client.skip_download":   "skip-download",
		"client.progress":        "progress",
		"client.results_file":    "results",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	envErr := env.LoadEnv()
	cfg, err := config.LoadConfig(viper.GetViper(), configDir)
	if err != nil {
		return err
	}
	logging.InitLogger(cfg.Debug)
	if envErr != nil {
		logging.Log.Warn("⚠️  No .env file found, using system envs")
	}
	log := logging.Log

	cc := cfg.Client
	if err := cc.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cc.WorkDir, 0755); err != nil {
		return err
	}

	var testFile string
	if !cc.SkipUpload {
		log.Infof("Preparing %dMB test file", cc.SizeMB)
		if testFile, err = bench.EnsureTestFile(cc.WorkDir, cc.SizeMB); err != nil {
			return err
		}
	}

	tlsOpts := transfer.TLSOptions{
		SkipVerify: !cc.VerifyTLS,
		Roots:      rootResolver(cc, log),
	}
	var progress *transfer.Progress
	if cc.Progress {
		progress = &transfer.Progress{Out: os.Stderr}
	}

	var targets []bench.Target
	if !cc.SkipHTTP {
		targets = append(targets, bench.Target{
			Protocol: transfer.ProtocolHTTP,
			Dial: func(ctx context.Context) (transfer.Transport, error) {
				return transfer.NewHTTPClient(ctx, transfer.HTTPClientOptions{
					BaseURL:  cc.HTTPURL,
					Timeout:  cc.HTTPTimeout,
					TLS:      tlsOpts,
					Progress: progress,
					Logger:   log,
				})
			},
		})
	}
	if !cc.SkipGRPC {
		grpcTLS := tlsOpts
		grpcTLS.Enabled = cc.TLS
		targets = append(targets, bench.Target{
			Protocol: transfer.ProtocolGRPC,
			Dial: func(ctx context.Context) (transfer.Transport, error) {
				return transfer.DialGRPC(ctx, transfer.GRPCClientOptions{
					Addr:     cc.GRPCAddr,
					Timeout:  cc.GRPCTimeout,
					TLS:      grpcTLS,
					Progress: progress,
					Logger:   log,
				})
			},
		})
	}

	orchestrator := bench.New(targets, bench.Options{
		TestFile:     testFile,
		DownloadName: cc.DownloadFileName(),
		WorkDir:      cc.WorkDir,
		SkipUpload:   cc.SkipUpload,
		SkipDownload: cc.SkipDownload,
	}, log)
	results := orchestrator.Run(ctx)

	if err := report.RenderTable(os.Stdout, cc.SizeMB, results); err != nil {
		return err
	}
	record := report.NewRecord(time.Now(), cc.SizeMB, env.HardwareInfo(), results)
	if err := record.Save(cc.ResultsFile); err != nil {
		return err
	}
	log.WithField("path", cc.ResultsFile).Info("Results saved")
	return nil
}

// rootResolver picks where trusted roots come from: the CA file, the
// certificate the server presents, or both with the file tried first. nil
// means the system store.
func rootResolver(cc config.ClientConfig, log *logrus.Logger) transfer.RootResolver {
	var roots transfer.RootResolver
	if cc.CAFile != "" {
		static, err := transfer.StaticRootsFromFile(cc.CAFile)
		if err != nil {
			log.WithError(err).Warn("Ignoring CA file")
		} else {
			roots = static
		}
	}
	if cc.FetchPeerCert {
		if roots == nil {
			return transfer.PeerRoots{}
		}
		return transfer.FallbackRoots{Primary: roots, Fallback: transfer.PeerRoots{}, Logger: log}
	}
	return roots
}
