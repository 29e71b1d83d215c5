package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrMissingUploadDir   = errors.New("server.upload_dir must be set")
	ErrInvalidWorkers     = errors.New("server.workers must be greater than 0")
	ErrMissingTLSMaterial = errors.New("server.tls needs cert_file and key_file, or self_signed")
	ErrInvalidSize        = errors.New("file sizes must not be negative, and client.size_mb must be positive")
	ErrInvalidTimeout     = errors.New("client timeouts must be greater than 0")
	ErrNothingToRun       = errors.New("every protocol or every operation is skipped")
)

// AppConfig holds the application-level configuration
type AppConfig struct {
	Debug  bool         `mapstructure:"debug"`
	Server ServerConfig `mapstructure:"server"`
	Client ClientConfig `mapstructure:"client"`
}

// ServerConfig configures the file server and both of its listeners.
type ServerConfig struct {
	HTTPAddr  string    `mapstructure:"http_addr"`
	GRPCAddr  string    `mapstructure:"grpc_addr"`
	UploadDir string    `mapstructure:"upload_dir"`
	Workers   int       `mapstructure:"workers"`
	Catalog   bool      `mapstructure:"catalog"`
	SeedMB    int       `mapstructure:"seed_mb"` // size of random-<n>mb.bin created at start-up, 0 for none
	TLS       TLSConfig `mapstructure:"tls"`
}

// TLSConfig selects the server certificate.
type TLSConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	CertFile   string   `mapstructure:"cert_file"`
	KeyFile    string   `mapstructure:"key_file"`
	SelfSigned bool     `mapstructure:"self_signed"`
	Hosts      []string `mapstructure:"hosts"`
}

// ClientConfig configures a benchmark run.
type ClientConfig struct {
	HTTPURL       string        `mapstructure:"http_url"`
	GRPCAddr      string        `mapstructure:"grpc_addr"`
	TLS           bool          `mapstructure:"tls"`
	VerifyTLS     bool          `mapstructure:"verify_tls"`
	CAFile        string        `mapstructure:"ca_file"`
	FetchPeerCert bool          `mapstructure:"fetch_peer_cert"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	GRPCTimeout   time.Duration `mapstructure:"grpc_timeout"`
	SizeMB        int           `mapstructure:"size_mb"`
	DownloadName  string        `mapstructure:"download_name"`
	WorkDir       string        `mapstructure:"work_dir"`
	SkipHTTP      bool          `mapstructure:"skip_http"`
	SkipGRPC      bool          `mapstructure:"skip_grpc"`
	SkipUpload    bool          `mapstructure:"skip_upload"`
	SkipDownload  bool          `mapstructure:"skip_download"`
	Progress      bool          `mapstructure:"progress"`
	ResultsFile   string        `mapstructure:"results_file"`
}

// SetDefaults registers every key with its default so that environment
// variables (GWBENCH_SERVER_UPLOAD_DIR, ...) are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":50051")
	v.SetDefault("server.upload_dir", "./uploads")
	v.SetDefault("server.workers", 10)
	v.SetDefault("server.catalog", true)
	v.SetDefault("server.seed_mb", 0)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("server.tls.self_signed", false)
	v.SetDefault("server.tls.hosts", []string{"localhost", "127.0.0.1"})

	v.SetDefault("client.http_url", "https://localhost:8080")
	v.SetDefault("client.grpc_addr", "localhost:50051")
	v.SetDefault("client.tls", true)
	v.SetDefault("client.verify_tls", true)
	v.SetDefault("client.ca_file", "")
	v.SetDefault("client.fetch_peer_cert", false)
	v.SetDefault("client.http_timeout", 60*time.Second)
	v.SetDefault("client.grpc_timeout", 300*time.Second)
	v.SetDefault("client.size_mb", 200)
	v.SetDefault("client.download_name", "")
	v.SetDefault("client.work_dir", ".")
	v.SetDefault("client.skip_http", false)
	v.SetDefault("client.skip_grpc", false)
	v.SetDefault("client.skip_upload", false)
	v.SetDefault("client.skip_download", false)
	v.SetDefault("client.progress", true)
	v.SetDefault("client.results_file", "benchmark_results.json")
}

// LoadConfig reads config.yaml from path (when present), the environment and
// any flags already bound to v.
func LoadConfig(v *viper.Viper, path string) (*AppConfig, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("GWBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Printf("⚠️ Could not read config file, using defaults: %v", err)
	}

	var appConfig AppConfig
	if err := v.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return &appConfig, nil
}

// Validate checks the server section.
func (c *ServerConfig) Validate() error {
	if c.UploadDir == "" {
		return ErrMissingUploadDir
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.SeedMB < 0 {
		return ErrInvalidSize
	}
	if c.TLS.Enabled && !c.TLS.SelfSigned && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return ErrMissingTLSMaterial
	}
	return nil
}

// Validate checks the client section.
func (c *ClientConfig) Validate() error {
	if c.SizeMB <= 0 {
		return ErrInvalidSize
	}
	if c.HTTPTimeout <= 0 || c.GRPCTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if (c.SkipHTTP && c.SkipGRPC) || (c.SkipUpload && c.SkipDownload) {
		return ErrNothingToRun
	}
	return nil
}

// DownloadFileName is the server-resident file fetched by the download tests.
func (c *ClientConfig) DownloadFileName() string {
	if c.DownloadName != "" {
		return c.DownloadName
	}
	return fmt.Sprintf("random-%dmb.bin", c.SizeMB)
}
