// Package document loads résumé documents from YAML or JSON files and
// exposes their sections for measurement.
package document

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/pagefit/internal/types"
)

var (
	// ErrNoSections is returned by Locate when the document has no sections.
	ErrNoSections = errors.New("document has no sections")
	// ErrInvalid wraps schema and decoding failures.
	ErrInvalid = errors.New("invalid document")
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("document.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("failed to load document schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("document.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile document schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Document is an ordered list of sections.
type Document struct {
	ID       string          `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string          `json:"title,omitempty" yaml:"title,omitempty"`
	Sections []types.Section `json:"sections" yaml:"sections"`
}

// Load reads and parses a document file. The format follows the extension:
// .json is JSON, anything else is YAML.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := decode(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc.assignIDs()
	return doc, nil
}

// Parse decodes and validates a document. ext selects the format (".json",
// ".yaml", ".yml").
func Parse(data []byte, ext string) (*Document, error) {
	doc, err := decode(data, ext)
	if err != nil {
		return nil, err
	}
	doc.assignIDs()
	return doc, nil
}

func decode(data []byte, ext string) (*Document, error) {
	var raw any
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	// Round trip through JSON so the validator sees JSON types only.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	var instance any
	if err := json.Unmarshal(normalized, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return &doc, nil
}

// ParseJSON decodes a JSON document.
func ParseJSON(data []byte) (*Document, error) {
	return Parse(data, ".json")
}

// assignIDs fills missing section ids with name-based UUIDs so they stay
// stable across reloads of the same file, and defaults the format.
func (d *Document) assignIDs() {
	for i := range d.Sections {
		s := &d.Sections[i]
		if s.Format == "" {
			s.Format = types.FormatMarkdown
		}
		if s.ID == "" {
			name := fmt.Sprintf("%s/%d/%s", d.ID, i, s.Type)
			s.ID = "sec-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
		}
	}
}

// Locate returns the document's sections in reading order.
func (d *Document) Locate(ctx context.Context) ([]types.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.Sections) == 0 {
		return nil, ErrNoSections
	}
	return slices.Clone(d.Sections), nil
}
