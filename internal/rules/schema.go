package rules

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const rulesSchemaURL = "https://ledgerly.schemas.local/rules/rules-file.schema.json"

var rulesSchemaDoc = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"pattern": {"type": "string", "minLength": 1},
			"merchant": {"type": "string"},
			"category": {"type": "string"},
			"transaction_type": {"type": "string"},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1},
			"description": {"type": "string"},
			"priority": {"type": "integer"}
		},
		"required": ["id", "pattern", "confidence", "priority"],
		"additionalProperties": true
	}
}`

func compileRulesSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(rulesSchemaURL, strings.NewReader(rulesSchemaDoc)); err != nil {
		return nil, fmt.Errorf("rules: add schema resource: %w", err)
	}
	schema, err := c.Compile(rulesSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("rules: compile schema: %w", err)
	}
	return schema, nil
}
