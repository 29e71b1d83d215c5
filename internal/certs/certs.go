// Package certs produces the server side TLS material: a self-signed
// certificate for benchmark setups, or a key pair loaded from disk.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// DefaultValidity is how long a generated certificate stays valid.
const DefaultValidity = 180 * 24 * time.Hour

// Generate creates a self-signed certificate valid for hosts, which may mix
// DNS names and IP addresses. Both results are PEM encoded.
func Generate(hosts []string, validFor time.Duration) (certPEM, keyPEM []byte, err error) {
	if len(hosts) == 0 {
		return nil, nil, errors.New("at least one host is required")
	}
	if validFor <= 0 {
		validFor = DefaultValidity
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"gwbench"},
			CommonName:   hosts[0],
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validFor),
		IsCA:                  true,
		BasicConstraintsValid: true,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment | x509.KeyUsageCertSign,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, nil
}

// Ensure writes a self-signed pair to certFile and keyFile unless certFile
// already exists. It reports whether a new pair was written.
func Ensure(certFile, keyFile string, hosts []string) (bool, error) {
	if _, err := os.Stat(certFile); err == nil {
		return false, nil
	}

	certPEM, keyPEM, err := Generate(hosts, DefaultValidity)
	if err != nil {
		return false, err
	}

	for _, f := range []struct {
		path string
		data []byte
		mode os.FileMode
	}{
		{certFile, certPEM, 0644},
		{keyFile, keyPEM, 0600},
	} {
		if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
			return false, fmt.Errorf("failed to create certificate directory: %w", err)
		}
		if err := os.WriteFile(f.path, f.data, f.mode); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}
	return true, nil
}

// ServerConfig loads a key pair into a server tls.Config.
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
