package config

import (
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/toolchainkit/toolchainkit/internal/errs"
)

// configSchema is the JSON Schema for toolchainkit.yaml, expressed as JSON
// since yaml.v3 decodes cleanly into JSON-compatible map[string]any trees.
// Kept narrow: structural validation in parser.go already enforces the
// cross-field invariants (uniqueness, references) a JSON Schema can't
// express well.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "toolchains"],
  "properties": {
    "version": {"type": "integer"},
    "project": {"type": "string"},
    "toolchains": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type", "version"],
        "properties": {
          "name": {"type": "string"},
          "type": {"type": "string", "enum": ["clang", "gcc", "msvc", "zig"]},
          "version": {"type": "string"},
          "stdlib": {"type": "string"},
          "source": {"type": "string", "enum": ["prebuilt", "build-from-source"]},
          "require_installed": {"type": "boolean"},
          "custom_paths": {"type": "object"}
        }
      }
    },
    "defaults": {"type": "object"},
    "toolchain_cache": {
      "type": "object",
      "properties": {
        "location": {"type": "string", "enum": ["shared", "local", "custom"]},
        "path": {"type": "string"}
      }
    },
    "packages": {
      "type": "object",
      "properties": {
        "manager": {"type": "string", "enum": ["conan", "vcpkg", "cpm"]},
        "conan": {"type": "object"},
        "vcpkg": {"type": "object"},
        "use_system": {"type": "boolean"},
        "custom_path": {"type": "string"},
        "conan_home": {"type": "string"},
        "vcpkg_root": {"type": "string"}
      }
    },
    "build": {
      "type": "object",
      "properties": {
        "backend": {"type": "string", "enum": ["ninja", "make", "msbuild", "xcode"]},
        "parallel": {"type": ["string", "integer"]},
        "caching": {
          "type": "object",
          "properties": {
            "enabled": {"type": "boolean"},
            "tool": {"type": "string", "enum": ["sccache", "ccache"]},
            "directory": {"type": "string"},
            "remote": {"type": "object"}
          }
        },
        "flags": {"type": "object"}
      }
    },
    "targets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["os", "arch"],
        "properties": {
          "os": {"type": "string"},
          "arch": {"type": "string"},
          "toolchain": {"type": "string"},
          "api_level": {"type": "integer"},
          "sdk": {"type": "string"}
        }
      }
    },
    "modules": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiledSchema != nil {
		return compiledSchema, nil
	}
	compiler := jsonschema.NewCompiler()
	s, err := compiler.Compile([]byte(configSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling config schema: %w", err)
	}
	compiledSchema = s
	return s, nil
}

// ValidateSchema runs raw (the yaml.Unmarshal'd map[string]any tree of
// toolchainkit.yaml) against the JSON Schema, returning a *errs.ConfigError
// describing the violation on failure.
func ValidateSchema(path string, raw map[string]any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(raw); err != nil {
		return &errs.ConfigError{Path: path, Reason: "schema validation failed", Err: err}
	}
	return nil
}
