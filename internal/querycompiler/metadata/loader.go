/*******************************************************************************
* Copyright (C) 2026 the Eclipse BaSyx Authors and Fraunhofer IESE
*
* Permission is hereby granted, free of charge, to any person obtaining
* a copy of this software and associated documentation files (the
* "Software"), to deal in the Software without restriction, including
* without limitation the rights to use, copy, modify, merge, publish,
* distribute, sublicense, and/or sell copies of the Software, and to
* permit persons to whom the Software is furnished to do so, subject to
* the following conditions:
*
* The above copyright notice and this permission notice shall be
* included in all copies or substantial portions of the Software.
*
* THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
* EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
* MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
* NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
* LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
* OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
* WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
*
* SPDX-License-Identifier: MIT
******************************************************************************/

package metadata

import (
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mogudian/elasticsearch-orm/internal/querycompiler/logger"
)

// File is the on-disk layout of an entity metadata document (YAML or JSON).
type File struct {
	Entities []EntityType `yaml:"entities"`
}

// entitySchema validates metadata documents before they are decoded.
const entitySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["entities"],
  "additionalProperties": false,
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "properties"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "index": {"type": "string"},
          "typeField": {"type": "string"},
          "typeValue": {"type": "string"},
          "properties": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "additionalProperties": false,
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "searchable": {"type": "boolean"},
                "lifecycle": {"type": "boolean"},
                "retention": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|ms|s|m|h))+$"},
                "nested": {"type": "boolean"},
                "object": {"type": "boolean"},
                "relatedType": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// LoadFile reads, validates and registers every entity type of a metadata file.
//
// Parameters:
//   - path: YAML or JSON metadata document
//   - schemaPath: optional JSON schema overriding the built-in one
//
// Returns:
//   - a registry holding the declared entity types
func LoadFile(path, schemaPath string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var schema []byte
	if schemaPath != "" {
		schema, err = os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("read metadata schema: %w", err)
		}
	}
	reg, err := Load(data, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.LogInfo(fmt.Sprintf("loaded %d entity types from %s", len(reg.Names()), path))
	return reg, nil
}

// Load validates data against schema (the built-in one when schema is empty) and builds a registry.
func Load(data []byte, schema []byte) (*Registry, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := validate(raw, schema); err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return NewRegistry(file.Entities...)
}

func validate(doc map[string]any, schema []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(entitySchema)
	if len(schema) > 0 {
		schemaLoader = gojsonschema.NewBytesLoader(schema)
	}
	compiled, err := gojsonschema.NewSchemaLoader().Compile(schemaLoader)
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var b strings.Builder
		b.WriteString("metadata invalid:")
		for _, e := range result.Errors() {
			b.WriteString("\n- ")
			b.WriteString(e.String())
		}
		return fmt.Errorf("%s", b.String())
	}
	return nil
}
