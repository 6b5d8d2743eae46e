package models

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed manifest.yaml
var embeddedManifest []byte

// Variant describes one downloadable model artefact.
type Variant struct {
	DisplayName string `yaml:"display_name"`
	Filename    string `yaml:"filename"`
	URL         string `yaml:"url"`
	// SHA256 is the expected hex digest; empty skips verification.
	SHA256    string `yaml:"sha256,omitempty"`
	SizeBytes int64  `yaml:"size_bytes,omitempty"`
}

// Manifest maps variant names to model artefacts.
type Manifest struct {
	Variants map[string]Variant `yaml:"variants"`
}

// LoadManifest decodes a YAML manifest.
func LoadManifest(r io.Reader) (Manifest, error) {
	var manifest Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&manifest); err != nil {
		return Manifest{}, fmt.Errorf("models: decode manifest: %w", err)
	}
	if len(manifest.Variants) == 0 {
		return Manifest{}, fmt.Errorf("models: manifest has no variants")
	}
	return manifest, nil
}

// WriteManifest encodes a manifest as YAML.
func WriteManifest(w io.Writer, manifest Manifest) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("models: encode manifest: %w", err)
	}
	return nil
}

// DefaultManifest returns the manifest embedded in the binary.
func DefaultManifest() (Manifest, error) {
	return LoadManifest(bytes.NewReader(embeddedManifest))
}
