// Package config loads and validates cmd/decofd's configuration
// document, adapted from cc-backend's internal/config: a package-level
// ProgramConfig-shaped struct with built-in defaults, loaded from a
// JSON file via schema.ValidateConfig followed by a strict
// DisallowUnknownFields decode.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/decof-project/decofd/pkg/schema"
)

// Timers holds the three polling periods spec §4.5's fast/medium/slow
// timers run at.
type Timers struct {
	FastMillis   int `json:"fastMillis"`
	MediumMillis int `json:"mediumMillis"`
	SlowMillis   int `json:"slowMillis"`
}

func (t Timers) Fast() time.Duration   { return time.Duration(t.FastMillis) * time.Millisecond }
func (t Timers) Medium() time.Duration { return time.Duration(t.MediumMillis) * time.Millisecond }
func (t Timers) Slow() time.Duration   { return time.Duration(t.SlowMillis) * time.Millisecond }

// ProgramConfig is the full shape of config.json, validated against
// pkg/schema's embedded config.schema.json before being decoded.
type ProgramConfig struct {
	RootName            string            `json:"rootName"`
	Separator           string            `json:"separator"`
	CLIAddr             string            `json:"cliAddr"`
	PubsubAddr          string            `json:"pubsubAddr"`
	SCGIAddr            string            `json:"scgiAddr"`
	DebugAddr           string            `json:"debugAddr"`
	Timers              Timers            `json:"timers"`
	Authenticator       string            `json:"authenticator"`
	LevelPasswordHashes map[string]string `json:"levelPasswordHashes"`
	User                string            `json:"user"`
	Group               string            `json:"group"`
}

// Defaults holds the default listen addresses/ports (1998/1999/8081),
// following cc-backend's pattern of a package-level Keys variable
// pre-populated with defaults before any file is loaded.
var Defaults = ProgramConfig{
	RootName:   "decof",
	Separator:  ":",
	CLIAddr:    ":1998",
	PubsubAddr: ":1999",
	SCGIAddr:   ":8081",
	Timers: Timers{
		FastMillis:   100,
		MediumMillis: 1000,
		SlowMillis:   10000,
	},
	Authenticator: "none",
}

// Load reads, schema-validates, and decodes path into a ProgramConfig
// seeded with Defaults. A missing file is not an error -- the caller
// runs on defaults, matching cc-backend's config.Init treating
// os.IsNotExist as non-fatal.
func Load(path string) (ProgramConfig, error) {
	cfg := Defaults

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}

	if err := schema.ValidateConfig(bytes.NewReader(raw)); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
