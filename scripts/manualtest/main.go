package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"github.com/jaywantadh/gwbench/internal/bench"
	"github.com/jaywantadh/gwbench/internal/metadata"
	"github.com/jaywantadh/gwbench/internal/storage"
	"github.com/jaywantadh/gwbench/internal/transfer"
	"github.com/jaywantadh/gwbench/pkg/httpserver"
	"github.com/jaywantadh/gwbench/pkg/logging"
)

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Runs a loopback server with both listeners, pushes one file through each
// protocol and checks every copy against the original hash.
func main() {
	sizeMB := flag.Int("size", 8, "test file size in MB")
	keep := flag.Bool("keep", false, "keep the work directory")
	flag.Parse()

	log := logging.Discard()

	workDir, err := os.MkdirTemp("", "gwbench-manual-")
	if err != nil {
		fmt.Printf("❌ Failed to create work dir: %v\n", err)
		return
	}
	if !*keep {
		defer os.RemoveAll(workDir)
	}

	inputPath, err := bench.EnsureTestFile(workDir, *sizeMB)
	if err != nil {
		fmt.Printf("❌ Failed to create test file: %v\n", err)
		return
	}
	origHash, err := sha256File(inputPath)
	if err != nil {
		fmt.Printf("❌ Failed hashing original: %v\n", err)
		return
	}
	fmt.Printf("📄 Original file: %s\n", inputPath)
	fmt.Printf("🔑 Original SHA256: %s\n", origHash)

	ms, err := metadata.OpenMetadataStore(filepath.Join(workDir, ".catalog"))
	if err != nil {
		fmt.Printf("❌ Metadata store init failed: %v\n", err)
		return
	}
	defer ms.Close()

	store, err := storage.NewLocalStorage(filepath.Join(workDir, "uploads"), ms, log)
	if err != nil {
		fmt.Printf("❌ Storage init failed: %v\n", err)
		return
	}

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("❌ HTTP listen failed: %v\n", err)
		return
	}
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("❌ gRPC listen failed: %v\n", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := transfer.NewPool(transfer.DefaultWorkers, log)
	go httpserver.New("", transfer.NewHTTPHandler(store, pool, log).Routes(), nil, log).Serve(ctx, httpLis)
	grpcSrv := transfer.NewGRPCServer(store, transfer.GRPCServerOptions{Pool: pool, Logger: log})
	go grpcSrv.Serve(grpcLis)
	defer grpcSrv.Stop()

	httpClient, err := transfer.NewHTTPClient(ctx, transfer.HTTPClientOptions{
		BaseURL: "http://" + httpLis.Addr().String(),
		Logger:  log,
	})
	if err != nil {
		fmt.Printf("❌ HTTP client init failed: %v\n", err)
		return
	}
	grpcClient, err := transfer.DialGRPC(ctx, transfer.GRPCClientOptions{
		Addr:   grpcLis.Addr().String(),
		Logger: log,
	})
	if err != nil {
		fmt.Printf("❌ gRPC client init failed: %v\n", err)
		return
	}

	ok := true
	for _, tr := range []transfer.Transport{httpClient, grpcClient} {
		ok = check(ctx, tr, inputPath, workDir, origHash, ms) && ok
		tr.Close()
	}

	if ok {
		fmt.Println("✅ SUCCESS: every copy matches the original")
	} else {
		fmt.Println("❌ MISMATCH: at least one copy differs from the original")
		os.Exit(1)
	}
}

func check(ctx context.Context, tr transfer.Transport, inputPath, workDir, origHash string, ms *metadata.MetadataStore) bool {
	name := filepath.Base(inputPath)

	up := tr.Upload(ctx, inputPath)
	if !up.Success {
		fmt.Printf("❌ %s upload failed: %s\n", tr.Protocol(), up.Error)
		return false
	}
	rec, err := ms.GetFileRecord(name)
	if err != nil {
		fmt.Printf("❌ %s upload not catalogued: %v\n", tr.Protocol(), err)
		return false
	}
	fmt.Printf("🧩 %s upload: %d bytes at %.2f MB/s, stored SHA256 %s\n", tr.Protocol(), up.BytesMoved, up.SpeedMBps, rec.SHA256)

	outPath := filepath.Join(workDir, fmt.Sprintf("downloaded-%s.bin", tr.Protocol()))
	down := tr.Download(ctx, name, outPath)
	if !down.Success {
		fmt.Printf("❌ %s download failed: %s\n", tr.Protocol(), down.Error)
		return false
	}
	reHash, err := sha256File(outPath)
	if err != nil {
		fmt.Printf("❌ Failed hashing %s: %v\n", outPath, err)
		return false
	}
	fmt.Printf("📦 %s download: %d bytes at %.2f MB/s, SHA256 %s\n", tr.Protocol(), down.BytesMoved, down.SpeedMBps, reHash)

	return rec.SHA256 == origHash && reHash == origHash
}
