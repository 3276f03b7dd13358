// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed operations.json
var embedded []byte

// Registry indexes the operation catalogue and holds each operation's
// compiled response schema.
type Registry struct {
	doc     OperationRegistry
	byID    map[string]*Operation
	schemas map[string]*gojsonschema.Schema
}

// Default returns the registry bundled with the binary.
func Default() (*Registry, error) {
	return Parse(embedded)
}

func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document, rejecting duplicate ids and schemas that
// do not compile.
func Parse(data []byte) (*Registry, error) {
	var doc OperationRegistry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	r := &Registry{
		doc:     doc,
		byID:    make(map[string]*Operation, len(doc.Operations)),
		schemas: make(map[string]*gojsonschema.Schema, len(doc.Operations)),
	}
	for i := range r.doc.Operations {
		op := &r.doc.Operations[i]
		if op.ID == "" {
			return nil, fmt.Errorf("operation %d has no id", i)
		}
		if _, dup := r.byID[op.ID]; dup {
			return nil, fmt.Errorf("duplicate operation %q", op.ID)
		}
		r.byID[op.ID] = op

		if len(op.ResponseSchema) == 0 {
			continue
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(op.ResponseSchema))
		if err != nil {
			return nil, fmt.Errorf("operation %q: response schema: %w", op.ID, err)
		}
		r.schemas[op.ID] = schema
	}
	return r, nil
}

func (r *Registry) Version() string { return r.doc.Version }

func (r *Registry) Lookup(id string) (Operation, bool) {
	op, ok := r.byID[id]
	if !ok {
		return Operation{}, false
	}
	return *op, true
}

// Operations lists every operation ordered by controller, then id.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, len(r.doc.Operations))
	copy(out, r.doc.Operations)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Controller != out[j].Controller {
			return out[i].Controller < out[j].Controller
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ValidateResponse checks raw against the operation's response schema. An
// operation without a schema accepts any well-formed JSON.
func (r *Registry) ValidateResponse(id string, raw json.RawMessage) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("unknown operation %q", id)
	}
	if !json.Valid(raw) {
		return fmt.Errorf("response is not valid JSON")
	}
	schema, ok := r.schemas[id]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("response validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
