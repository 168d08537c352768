package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tsvr/compile"
	"tsvr/doc"
	"tsvr/incremental"
	"tsvr/vecir"
)

// documentCompiler adapts a JSON-encoded doc.Document on disk into a
// compile.Compiler: every Compile call re-reads the file and lowers it
// through an incremental builder, so repeated compiles (triggered by the
// watcher) reuse whatever the builder has already interned.
type documentCompiler struct {
	path    string
	builder *incremental.Builder
}

func (c *documentCompiler) Compile(ctx context.Context, rev compile.Revision, reasons compile.CompileReasons) (*vecir.Module, error) {
	d, err := loadDocument(c.path)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	b := c.builder
	if b == nil {
		b = incremental.New()
		c.builder = b
	}

	mod, err := b.Lower(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("lowering document: %w", err)
	}
	b.IncrementLifetime()
	return mod, nil
}

// loadDocumentFromReader decodes a doc.Document from an already-open
// reader, for callers (e.g. zip archive entries) that don't have a plain
// filesystem path to hand to loadDocument.
func loadDocumentFromReader(r io.Reader) (doc.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return doc.Document{}, err
	}
	var d doc.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return doc.Document{}, fmt.Errorf("decoding document JSON: %w", err)
	}
	return d, nil
}

func loadDocument(path string) (doc.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return doc.Document{}, err
	}
	var d doc.Document
	if err := json.Unmarshal(data, &d); err != nil {
		return doc.Document{}, fmt.Errorf("decoding document JSON: %w", err)
	}
	return d, nil
}
