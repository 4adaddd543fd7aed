package datapack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var schemaNames = []string{
	"blocks",
	"biomes",
	"noise",
	"density_function",
	"noise_settings",
	"multi_noise",
	"configured_feature",
	"placed_feature",
}

type validator struct {
	schemas map[string]*jsonschema.Schema
}

const schemaBase = "https://go-theft-craft.dev/worldgen/schema/"

func schemaURL(name string) string { return schemaBase + name + ".schema.json" }

// newValidator compiles the schemas under schema/ in fsys, falling back to
// the embedded copy for any the pack does not carry.
func newValidator(fsys fs.FS) (*validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range schemaNames {
		file := "schema/" + name + ".schema.json"
		b, err := fs.ReadFile(fsys, file)
		if errors.Is(err, fs.ErrNotExist) {
			b, err = embedded.ReadFile("data/" + file)
		}
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		if err := c.AddResource(schemaURL(name), bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	v := &validator{schemas: make(map[string]*jsonschema.Schema, len(schemaNames))}
	for _, name := range schemaNames {
		s, err := c.Compile(schemaURL(name))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

func (v *validator) validate(schema string, b []byte) error {
	s, ok := v.schemas[schema]
	if !ok {
		return fmt.Errorf("no schema %s", schema)
	}
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var doc any
	if err := d.Decode(&doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("schema %s: %w", schema, err)
	}
	return nil
}
