package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jaywantadh/gwbench/config"
	"github.com/jaywantadh/gwbench/internal/certs"
	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/internal/metadata"
	"github.com/jaywantadh/gwbench/internal/storage"
	"github.com/jaywantadh/gwbench/internal/transfer"
	"github.com/jaywantadh/gwbench/pkg/env"
	"github.com/jaywantadh/gwbench/pkg/httpserver"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "gwbench-server",
	Short: "Serve one upload directory over HTTP and gRPC",
	Long: `gwbench-server exposes a single upload directory through two listeners:

  HTTP  PUT /upload/{name}, GET /files/{name}, GET /files/, GET /healthz
  gRPC  filetransfer.FileService (UploadFile, DownloadFile) plus grpc.health.v1

Both listeners share one worker pool. Settings come from config.yaml,
GWBENCH_* environment variables and the flags below.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&configDir, "config-dir", ".", "directory holding config.yaml")
	f.Bool("debug", false, "enable debug logging")
	f.String("http-addr", ":8080", "HTTP listen address")
	f.String("grpc-addr", ":50051", "gRPC listen address")
	f.String("upload-dir", "./uploads", "directory files are stored in")
	f.Int("workers", transfer.DefaultWorkers, "calls handled concurrently across both listeners")
	f.Bool("catalog", true, "keep a catalog of stored files")
	f.Int("seed-mb", 0, "create random-<n>mb.bin at start-up when missing")
	f.Bool("tls", false, "serve both listeners over TLS")
	f.String("cert-file", "", "TLS certificate file")
	f.String("key-file", "", "TLS private key file")
	f.Bool("self-signed", false, "generate a self-signed certificate when cert-file is missing")

	for key, flag := range map[string]string{
		"debug":                  "debug",
		"server.http_addr":       "http-addr",
		"server.grpc_addr":       "grpc-addr",
		"server.upload_dir":      "upload-dir",
		"server.workers":         "workers",
		"server.catalog":         "catalog",
		"server.seed_mb":         "seed-mb",
		"server.tls.enabled":     "tls",
		"server.tls.cert_file":   "cert-file",
		"server.tls.key_file":    "key-file",
		"server.tls.self_signed": "self-signed",
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

	sc := cfg.Server
	if err := sc.Validate(); err != nil {
		return err
	}

	var catalog *metadata.MetadataStore
	if sc.Catalog {
		catalog, err = metadata.OpenMetadataStore(filepath.Join(sc.UploadDir, ".catalog"))
		if err != nil {
			return err
		}
		defer catalog.Close()
	}

	store, err := storage.NewLocalStorage(sc.UploadDir, catalog, log)
	if err != nil {
		return err
	}
	log.WithField("upload_dir", store.Root()).Info("FileService initialized")

	if sc.SeedMB > 0 {
		if err := seed(store, sc.SeedMB, log); err != nil {
			return err
		}
	}

	tlsConfig, err := serverTLS(sc.TLS, log)
	if err != nil {
		return err
	}

	pool := transfer.NewPool(sc.Workers, log)
	httpSrv := httpserver.New(sc.HTTPAddr, transfer.NewHTTPHandler(store, pool, log).Routes(), tlsConfig, log)
	grpcSrv := transfer.NewGRPCServer(store, transfer.GRPCServerOptions{
		TLS:    tlsConfig,
		Pool:   pool,
		Logger: log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpSrv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", sc.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", sc.GRPCAddr, err)
		}
		log.WithFields(logrus.Fields{
			"addr":    lis.Addr().String(),
			"tls":     tlsConfig != nil,
			"workers": pool.Size(),
		}).Info("gRPC server listening")
		return grpcSrv.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("gRPC server shutting down")
		grpcSrv.GracefulStop()
		return nil
	})
	return g.Wait()
}

// serverTLS returns nil when TLS is off.
func serverTLS(c config.TLSConfig, log *logrus.Logger) (*tls.Config, error) {
	if !c.Enabled {
		return nil, nil
	}

	certFile, keyFile := c.CertFile, c.KeyFile
	if c.SelfSigned {
		if certFile == "" {
			certFile = filepath.Join("certs", "server.crt")
		}
		if keyFile == "" {
			keyFile = filepath.Join("certs", "server.key")
		}
		created, err := certs.Ensure(certFile, keyFile, c.Hosts)
		if err != nil {
			return nil, err
		}
		if created {
			log.WithFields(logrus.Fields{"cert": certFile, "hosts": c.Hosts}).Info("Generated self-signed certificate")
		}
	}
	return certs.ServerConfig(certFile, keyFile)
}

// seed stores random-<sizeMB>mb.bin unless it is already there.
func seed(store storage.Storage, sizeMB int, log *logrus.Logger) error {
	name := fmt.Sprintf("random-%dmb.bin", sizeMB)
	if src, err := store.Retrieve(name, chunker.DefaultChunkSize); err == nil {
		src.Close()
		return nil
	}

	size := int64(sizeMB) * 1024 * 1024
	log.WithField("filename", name).Infof("Seeding %dMB download file", sizeMB)
	src := chunker.NewSource(io.LimitReader(rand.Reader, size), name, size, chunker.DefaultChunkSize)
	if _, err := store.Store(name, src); err != nil {
		return fmt.Errorf("failed to seed %s: %w", name, err)
	}
	return nil
}
