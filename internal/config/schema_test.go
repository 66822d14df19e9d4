package config

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValidateSchema_RejectsUnknownToolchainType(t *testing.T) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(`
version: 1
toolchains:
  - name: main
    type: not-a-real-compiler
    version: "1.0"
`), &raw); err != nil {
		t.Fatal(err)
	}
	if err := ValidateSchema("toolchainkit.yaml", raw); err == nil {
		t.Fatal("expected schema validation to reject an unknown toolchain type")
	}
}

func TestValidateSchema_AcceptsMinimalConfig(t *testing.T) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(minimalConfig), &raw); err != nil {
		t.Fatal(err)
	}
	if err := ValidateSchema("toolchainkit.yaml", raw); err != nil {
		t.Fatalf("expected minimal config to pass schema validation, got: %v", err)
	}
}
