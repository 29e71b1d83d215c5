package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCoversHosts(t *testing.T) {
	certPEM, keyPEM, err := Generate([]string{"localhost", "127.0.0.1"}, time.Hour)
	require.NoError(t, err)

	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost"}, cert.DNSNames)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.NoError(t, cert.VerifyHostname("localhost"))
	assert.NoError(t, cert.VerifyHostname("127.0.0.1"))

	_, err = tls.X509KeyPair(certPEM, keyPEM)
	assert.NoError(t, err)
}

func TestGenerateNeedsHost(t *testing.T) {
	_, _, err := Generate(nil, time.Hour)
	assert.Error(t, err)
}

func TestEnsureWritesOnce(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "tls", "server.crt")
	keyFile := filepath.Join(dir, "tls", "server.key")

	created, err := Ensure(certFile, keyFile, []string{"localhost"})
	require.NoError(t, err)
	assert.True(t, created)

	first, err := os.ReadFile(certFile)
	require.NoError(t, err)

	created, err = Ensure(certFile, keyFile, []string{"localhost"})
	require.NoError(t, err)
	assert.False(t, created)

	second, err := os.ReadFile(certFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cfg, err := ServerConfig(certFile, keyFile)
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
}

func TestServerConfigMissingFiles(t *testing.T) {
	_, err := ServerConfig(filepath.Join(t.TempDir(), "nope.crt"), filepath.Join(t.TempDir(), "nope.key"))
	assert.Error(t, err)
}
