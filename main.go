package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/ormasoftchile/executable-talk-sub000/internal/lsp"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

var (
	// Version information - set during build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type stdio struct{}

func (stdio) Read(p []byte) (n int, err error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (n int, err error) { return os.Stdout.Write(p) }
func (stdio) Close() error                      { return nil }

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	debounce := flag.Duration("debounce", lsp.DefaultDebounceDelay, "Delay before diagnostics run after an edit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("executable-talk-ls %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return
	}

	// stdout carries the LSP stream, so logs go to stderr
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := schema.Load()
	if err != nil {
		logger.Fatal("failed to load action catalog", zap.Error(err))
	}

	server := lsp.NewServer(logger, catalog, *debounce)

	var rw io.ReadWriteCloser = stdio{}
	stream := jsonrpc2.NewStream(rw)
	conn := jsonrpc2.NewConn(stream)

	// Set the connection in the server so it can send notifications
	server.SetConnection(conn)

	go conn.Go(context.Background(), server.Handler())
	<-conn.Done()
}
