package exchange

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/couchlab/internal/core/domain"
	"github.com/custodia-labs/couchlab/internal/core/ports/driven"
)

// Ensure the codecs implement the interface.
var (
	_ driven.CodecRegistry = Registry{}
	_ driven.DocumentCodec = JSONCodec{}
	_ driven.DocumentCodec = YAMLCodec{}
	_ driven.DocumentCodec = CSVCodec{}
)

// Registry maps export formats to codecs.
type Registry struct{}

// NewRegistry returns the codec registry.
func NewRegistry() Registry {
	return Registry{}
}

// Codec returns the codec for format.
func (Registry) Codec(format domain.ExportFormat) (driven.DocumentCodec, error) {
	switch format {
	case domain.FormatJSON:
		return JSONCodec{}, nil
	case domain.FormatCSV:
		return CSVCodec{}, nil
	case domain.FormatYAML:
		return YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", domain.ErrInvalidInput, format)
	}
}

// JSONCodec reads and writes an indented JSON array.
type JSONCodec struct{}

// Encode writes docs as a JSON array.
func (JSONCodec) Encode(w io.Writer, docs []domain.RawDoc) error {
	if docs == nil {
		docs = []domain.RawDoc{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// Decode reads a JSON array of documents. A single object is accepted too.
func (JSONCodec) Decode(r io.Reader) ([]domain.RawDoc, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var docs []domain.RawDoc
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}
	var doc domain.RawDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return []domain.RawDoc{doc}, nil
}

// YAMLCodec reads and writes a YAML sequence of documents.
type YAMLCodec struct{}

// Encode writes docs as a YAML sequence.
func (YAMLCodec) Encode(w io.Writer, docs []domain.RawDoc) error {
	if docs == nil {
		docs = []domain.RawDoc{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docs); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a YAML sequence. Values are passed through JSON so they
// carry the same types as documents read from the server.
func (YAMLCodec) Decode(r io.Reader) ([]domain.RawDoc, error) {
	var raw []map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return []domain.RawDoc{}, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	var docs []domain.RawDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return docs, nil
}
