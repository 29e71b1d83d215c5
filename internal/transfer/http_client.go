package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/gwbench/internal/chunker"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

// errorBodyLimit caps how much of a failed response body ends up in the
// error text.
const errorBodyLimit = 200

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	// BaseURL is the server root, e.g. https://localhost:8080.
	BaseURL string
	// Timeout bounds each whole call; zero means DefaultHTTPTimeout.
	Timeout  time.Duration
	TLS      TLSOptions
	Progress *Progress
	Logger   *logrus.Logger
	// Transport replaces the default round tripper, mainly for tests.
	Transport http.RoundTripper
}

// HTTPClient is the HTTP implementation of Transport.
type HTTPClient struct {
	baseURL  string
	client   *http.Client
	progress *Progress
	logger   *logrus.Logger
}

// NewHTTPClient prepares a client for opts.BaseURL. Trusted roots are
// resolved once here.
func NewHTTPClient(ctx context.Context, opts HTTPClientOptions) (*HTTPClient, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}

	log := logging.Or(opts.Logger)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	rt := opts.Transport
	if rt == nil {
		tlsOpts := opts.TLS
		tlsOpts.Enabled = u.Scheme == "https"
		tlsConfig, err := ClientTLSConfig(ctx, hostPort(u), tlsOpts, log)
		if err != nil {
			return nil, err
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = tlsConfig
		rt = tr
	}

	return &HTTPClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		client:   &http.Client{Timeout: timeout, Transport: rt},
		progress: opts.Progress,
		logger:   log,
	}, nil
}

func (c *HTTPClient) Protocol() Protocol { return ProtocolHTTP }

// Upload PUTs the file as one streamed body.
func (c *HTTPClient) Upload(ctx context.Context, filePath string) TransferResult {
	filename := filepath.Base(filePath)
	start := time.Now()
	sent, err := c.upload(ctx, filePath, filename)
	res := NewResult(ProtocolHTTP, OpUpload, filename, start, sent, err)
	logResult(c.logger, res)
	return res
}

func (c *HTTPClient) upload(ctx context.Context, filePath, filename string) (int64, error) {
	src, err := chunker.Open(filePath, HTTPReadChunkSize)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	tracker := c.progress.track("HTTP upload", src.TotalSize())
	defer tracker.finish()
	src.Observe(tracker.observer())

	body := &uploadBody{r: src}
	var reqBody io.Reader = body
	if src.TotalSize() == 0 {
		reqBody = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+UploadPath+url.PathEscape(filename), reqBody)
	if err != nil {
		return 0, err
	}
	req.ContentLength = src.TotalSize()
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	// The transport may still be writing the body when the server answers
	// early; freeze it so the count below is final.
	body.stop()
	sent := src.Sent()
	if err != nil {
		return sent, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		io.Copy(io.Discard, resp.Body)
		return sent, nil
	default:
		return sent, statusError(resp)
	}
}

// errBodyStopped ends a request body whose call has already returned.
var errBodyStopped = errors.New("upload body stopped")

// uploadBody is a plain io.Reader so the transport can never close the
// underlying file. After stop, reads fail and no further bytes are counted.
type uploadBody struct {
	mu      sync.Mutex
	r       io.Reader
	stopped bool
}

func (b *uploadBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return 0, errBodyStopped
	}
	return b.r.Read(p)
}

// stop waits for an in-flight Read to finish and fails every later one.
func (b *uploadBody) stop() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
}

// Download GETs filename and streams the body into outputPath.
func (c *HTTPClient) Download(ctx context.Context, filename, outputPath string) TransferResult {
	start := time.Now()
	received, err := c.download(ctx, filename, outputPath)
	res := NewResult(ProtocolHTTP, OpDownload, filename, start, received, err)
	logResult(c.logger, res)
	return res
}

func (c *HTTPClient) download(ctx context.Context, filename, outputPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+FilesPath+url.PathEscape(filename), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}

	sink, err := chunker.NewSink(outputPath)
	if err != nil {
		return 0, err
	}

	tracker := c.progress.track("HTTP download", resp.ContentLength)
	defer tracker.finish()

	body := chunker.NewSource(resp.Body, filename, resp.ContentLength, HTTPReadChunkSize)
	return chunker.Drain(chunker.VerifySize(body), sink, tracker.observer())
}

func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// statusError captures the status and the start of the body of a failed
// response.
func statusError(resp *http.Response) error {
	head, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(head))}
}

// hostPort returns u's host with the scheme's default port filled in.
func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}
