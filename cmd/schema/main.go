// Command schema regenerates the committed JSON schemas from the Go wire
// types. Reflection covers the field shapes; the canonical $id (which the
// observation schema's $ref resolves against) and the conditional field
// requirements (move needs direction, talk needs target) are layered on top,
// and the document is rendered with sorted keys so output is stable. A test
// asserts the committed file matches this output byte for byte.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"gridsandbox.ai/internal/protocol"
)

const actionSchemaID = "https://gridsandbox.ai/schemas/action.schema.json"

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "schemas", "directory to write JSON schemas")
	flag.Parse()

	doc, err := actionSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build action schema: %v\n", err)
		os.Exit(1)
	}
	if err := writeSchema(filepath.Join(outDir, "action.schema.json"), doc); err != nil {
		fmt.Fprintf(os.Stderr, "write action schema: %v\n", err)
		os.Exit(1)
	}
}

func actionSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	b, err := json.Marshal(reflector.Reflect(new(protocol.Action)))
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	doc["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	doc["$id"] = actionSchemaID
	doc["title"] = "Sandbox Action"
	doc["description"] = "One agent action: a move, a talk, or a wait. Legal-action sets and model replies share this shape."
	doc["allOf"] = []any{
		conditionalRequirement("move", "direction"),
		conditionalRequirement("talk", "target"),
	}
	return doc, nil
}

func conditionalRequirement(kind, field string) map[string]any {
	return map[string]any{
		"if": map[string]any{
			"properties": map[string]any{
				"action": map[string]any{"const": kind},
			},
		},
		"then": map[string]any{
			"required": []string{field},
		},
	}
}

func renderSchema(doc map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func writeSchema(path string, doc map[string]any) error {
	data, err := renderSchema(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
