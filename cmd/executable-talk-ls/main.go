package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"

	"github.com/ormasoftchile/executable-talk-sub000/internal/lsp"
	"github.com/ormasoftchile/executable-talk-sub000/internal/schema"
)

type stdio struct{}

func (stdio) Read(p []byte) (n int, err error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (n int, err error) { return os.Stdout.Write(p) }
func (stdio) Close() error                      { return nil }

func main() {
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

	server := lsp.NewServer(logger, catalog, lsp.DefaultDebounceDelay)

	var rw io.ReadWriteCloser = stdio{}
	stream := jsonrpc2.NewStream(rw)
	conn := jsonrpc2.NewConn(stream)
	server.SetConnection(conn)

	go conn.Go(context.Background(), server.Handler())
	<-conn.Done()
}
