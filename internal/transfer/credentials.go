package transfer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/pkg/logging"
)

// RootResolver decides which certificate authorities a client trusts when
// talking to addr.
type RootResolver interface {
	ResolveRoots(ctx context.Context, addr string) (*x509.CertPool, error)
}

// SystemRoots trusts the operating system store.
type SystemRoots struct{}

func (SystemRoots) ResolveRoots(ctx context.Context, addr string) (*x509.CertPool, error) {
	return x509.SystemCertPool()
}

// StaticRoots trusts the PEM encoded certificates it was given.
type StaticRoots struct {
	PEM []byte
}

// StaticRootsFromFile reads a PEM bundle from disk.
func StaticRootsFromFile(path string) (StaticRoots, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StaticRoots{}, fmt.Errorf("failed to read CA file: %w", err)
	}
	return StaticRoots{PEM: data}, nil
}

func (s StaticRoots) ResolveRoots(ctx context.Context, addr string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(s.PEM) {
		return nil, errors.New("no certificates found in PEM data")
	}
	return pool, nil
}

// PeerRoots trusts whatever chain the server presents during a handshake. It
// is meant for self-signed test servers; the handshake itself is not verified.
type PeerRoots struct {
	Timeout time.Duration
}

func (p PeerRoots) ResolveRoots(ctx context.Context, addr string) (*x509.CertPool, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := &tls.Dialer{Config: &tls.Config{InsecureSkipVerify: true}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch peer certificate: %w", err)
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, errors.New("peer presented no certificates")
	}

	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}

// FallbackRoots tries Primary and falls back to Fallback (the system store
// when nil) if it fails. It never returns an error from Primary.
type FallbackRoots struct {
	Primary  RootResolver
	Fallback RootResolver
	Logger   *logrus.Logger
}

func (f FallbackRoots) ResolveRoots(ctx context.Context, addr string) (*x509.CertPool, error) {
	fallback := f.Fallback
	if fallback == nil {
		fallback = SystemRoots{}
	}
	if f.Primary == nil {
		return fallback.ResolveRoots(ctx, addr)
	}

	pool, err := f.Primary.ResolveRoots(ctx, addr)
	if err == nil {
		return pool, nil
	}
	logging.Or(f.Logger).WithError(err).WithField("addr", addr).Warn("Could not resolve root certificates, falling back")
	return fallback.ResolveRoots(ctx, addr)
}

// TLSOptions configures the client side of a TLS connection.
type TLSOptions struct {
	// Enabled selects TLS; when false the connection is plaintext.
	Enabled bool
	// SkipVerify disables certificate validation entirely.
	SkipVerify bool
	// Roots resolves trusted authorities; nil means the system store.
	Roots RootResolver
}

// ClientTLSConfig builds the tls.Config for addr, or nil for plaintext.
func ClientTLSConfig(ctx context.Context, addr string, opts TLSOptions, logger *logrus.Logger) (*tls.Config, error) {
	if !opts.Enabled {
		return nil, nil
	}

	log := logging.Or(logger)
	if opts.SkipVerify {
		log.WithField("addr", addr).Warn("TLS certificate verification is DISABLED; the server identity is not checked")
		return &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}, nil
	}

	roots, err := FallbackRoots{Primary: opts.Roots, Logger: log}.ResolveRoots(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to load trusted roots: %w", err)
	}

	cfg := &tls.Config{RootCAs: roots, MinVersion: tls.VersionTLS12}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		cfg.ServerName = host
	}
	return cfg, nil
}
