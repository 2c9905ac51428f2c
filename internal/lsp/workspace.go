package lsp

import (
	"context"
	"strings"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"
)

// LaunchConfig is one debug launch configuration reported by the client.
type LaunchConfig struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Line int    `json:"line"`
}

// WorkspaceIndex caches the workspace file list and launch configurations
// used by go-to-definition. It is populated with two custom requests issued
// to the client and degrades to an empty index when the client does not
// implement them.
type WorkspaceIndex struct {
	mu      sync.RWMutex
	files   []string
	configs []LaunchConfig
}

// NewWorkspaceIndex creates an empty index.
func NewWorkspaceIndex() *WorkspaceIndex {
	return &WorkspaceIndex{}
}

// Populate asks the client for workspace files and launch configurations.
// Either request failing leaves the corresponding part of the index empty.
func (w *WorkspaceIndex) Populate(ctx context.Context, conn jsonrpc2.Conn, logger *zap.Logger) {
	var files []string
	if _, err := conn.Call(ctx, "executableTalk/workspaceFiles", nil, &files); err != nil {
		logger.Debug("workspace file listing unavailable", zap.Error(err))
	} else {
		w.SetFiles(files)
	}

	var configs []LaunchConfig
	if _, err := conn.Call(ctx, "executableTalk/launchConfigs", nil, &configs); err != nil {
		logger.Debug("launch config listing unavailable", zap.Error(err))
	} else {
		w.SetLaunchConfigs(configs)
	}
}

// SetFiles replaces the indexed file list.
func (w *WorkspaceIndex) SetFiles(files []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = files
}

// SetLaunchConfigs replaces the indexed launch configurations.
func (w *WorkspaceIndex) SetLaunchConfigs(configs []LaunchConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.configs = configs
}

// ResolveFile matches a declared path against the indexed files, exactly or
// as a path suffix.
func (w *WorkspaceIndex) ResolveFile(path string) (protocol.Location, bool) {
	if path == "" {
		return protocol.Location{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, f := range w.files {
		if f == path || strings.HasSuffix(f, "/"+path) {
			return protocol.Location{URI: uri.File(f)}, true
		}
	}
	return protocol.Location{}, false
}

// ResolveLaunchConfig looks up a launch configuration by name.
func (w *WorkspaceIndex) ResolveLaunchConfig(name string) (protocol.Location, bool) {
	if name == "" {
		return protocol.Location{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, c := range w.configs {
		if c.Name == name {
			line := uint32(c.Line)
			return protocol.Location{
				URI: uri.File(c.Path),
				Range: protocol.Range{
					Start: protocol.Position{Line: line},
					End:   protocol.Position{Line: line},
				},
			}, true
		}
	}
	return protocol.Location{}, false
}
