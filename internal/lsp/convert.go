package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/ormasoftchile/executable-talk-sub000/internal/parser"
)

func toProtoPosition(p parser.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Character)}
}

func toProtoRange(r parser.Range) protocol.Range {
	return protocol.Range{Start: toProtoPosition(r.Start), End: toProtoPosition(r.End)}
}

func fromProtoPosition(p protocol.Position) parser.Position {
	return parser.Position{Line: int(p.Line), Character: int(p.Character)}
}
