// Package snapshot exports and imports a whole contact collection as a
// single JSON or YAML document.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kittclouds/contactkitt/internal/store"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	ErrUnknownFormat = errors.New("snapshot: unknown format")
	ErrSchemaVersion = errors.New("snapshot: unsupported schema version")
)

// Document is the exported shape of a collection.
type Document struct {
	SchemaVersion int              `json:"schemaVersion" yaml:"schemaVersion"`
	Database      string           `json:"database" yaml:"database"`
	Collection    string           `json:"collection" yaml:"collection"`
	Contacts      []*store.Contact `json:"contacts" yaml:"contacts"`
}

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Export lists every contact in s and writes them to w. The header names
// the database and collection s is bound to.
func Export(ctx context.Context, s store.Storer, w io.Writer, f Format) error {
	contacts, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list contacts: %w", err)
	}

	database, collection := store.NamesOf(s)
	doc := Document{
		SchemaVersion: store.SchemaVersion,
		Database:      database,
		Collection:    collection,
		Contacts:      contacts,
	}
	return Encode(w, &doc, f)
}

// Encode writes doc to w in format f.
func Encode(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Decode reads a document in format f and checks its schema version.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	if doc.SchemaVersion != store.SchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrSchemaVersion, doc.SchemaVersion)
	}
	return &doc, nil
}

// Import writes every contact in the document read from r into s.
// Keyed contacts are put at their key; contacts without one are inserted.
// It stops at the first storage error and reports how many were written.
func Import(ctx context.Context, s store.Storer, r io.Reader, f Format) (int, error) {
	doc, err := Decode(r, f)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, c := range doc.Contacts {
		if c == nil {
			continue
		}
		if c.ID > 0 {
			err = s.Update(ctx, c)
		} else {
			_, err = s.Insert(ctx, c)
		}
		if err != nil {
			return written, fmt.Errorf("failed to import contact %q: %w", c.Name, err)
		}
		written++
	}
	return written, nil
}
