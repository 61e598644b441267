// Package schema validates DeCoF's configuration document against an
// embedded JSON Schema, adapted from cc-backend's pkg/schema.Validate:
// the same embed.FS-backed jsonschema.Loaders["embedFS"] registration
// and jsonschema.Compile call, narrowed to the one document kind DeCoF
// needs (cc-backend's Meta/Data/ClusterCfg schema kinds had no
// equivalent document here).
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*
var schemaFiles embed.FS

func load(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

func init() {
	jsonschema.Loaders["embedFS"] = load
}

// ValidateConfig validates r (a config.json document) against the
// embedded config schema.
func ValidateConfig(r io.Reader) error {
	s, err := jsonschema.Compile("embedFS://schemas/config.schema.json")
	if err != nil {
		return err
	}

	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return fmt.Errorf("schema: decode: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
