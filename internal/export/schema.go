package export

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"blockgraph/internal/graph"
)

// Schema reflects the JSON Schema of v.
func Schema(v any) ([]byte, error) {
	reflector := new(jsonschema.Reflector)
	bts, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return bts, nil
}

// OutputDocument is the value documents written by Writer are reflected from.
func OutputDocument() any {
	return &[]graph.FunctionJSON{}
}

// OutputSchema is the schema of documents written by Writer.
func OutputSchema() ([]byte, error) {
	return Schema(OutputDocument())
}
