package lsp

import (
	"sync"

	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
)

// DocumentManager caches the parsed model of every open document. Each URI is
// keyed independently; there is no shared state between documents.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[protocol.DocumentURI]*parser.Document
}

// NewDocumentManager creates an empty document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[protocol.DocumentURI]*parser.Document),
	}
}

// Open parses and stores a newly opened document.
func (dm *DocumentManager) Open(uri protocol.DocumentURI, version int32, content string) *parser.Document {
	doc := parser.Parse(string(uri), version, content)

	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.documents[uri] = doc
	return doc
}

// Update replaces the stored model with a full re-parse of the new content.
func (dm *DocumentManager) Update(uri protocol.DocumentURI, version int32, content string) *parser.Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var doc *parser.Document
	if prev, exists := dm.documents[uri]; exists {
		doc = parser.ApplyChange(prev, version, content)
	} else {
		doc = parser.Parse(string(uri), version, content)
	}
	dm.documents[uri] = doc
	return doc
}

// Close discards a document's model.
func (dm *DocumentManager) Close(uri protocol.DocumentURI) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, uri)
}

// Get retrieves the latest cached model for a URI.
func (dm *DocumentManager) Get(uri protocol.DocumentURI) (*parser.Document, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, exists := dm.documents[uri]
	return doc, exists
}
