package generate

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// JSON schemas for each structured model output. The model is instructed to
// produce these shapes and the response is rejected before it reaches the
// caller if it does not conform.

const summarySchema = `{
  "type": "array",
  "minItems": 3,
  "maxItems": 3,
  "items": {
    "type": "object",
    "required": ["experience_level", "summary"],
    "properties": {
      "experience_level": {
        "type": "string",
        "enum": ["Fresher", "Mid-Level", "Senior"]
      },
      "summary": {
        "type": "string",
        "minLength": 1
      }
    },
    "additionalProperties": false
  }
}`

const activitySchema = `{
  "type": "object",
  "required": ["activities"],
  "properties": {
    "activities": {
      "type": "string",
      "minLength": 1
    }
  },
  "additionalProperties": false
}`

const coverLetterSchema = `{
  "type": "object",
  "required": ["cover_letter"],
  "properties": {
    "cover_letter": {
      "type": "string",
      "minLength": 1
    }
  },
  "additionalProperties": false
}`

const atsSchema = `{
  "type": "object",
  "required": ["match_score", "matched_keywords", "missing_keywords", "suggestions"],
  "properties": {
    "match_score": {
      "type": "integer",
      "minimum": 0,
      "maximum": 100
    },
    "matched_keywords": {
      "type": "array",
      "items": {"type": "string"}
    },
    "missing_keywords": {
      "type": "array",
      "items": {"type": "string"}
    },
    "suggestions": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "additionalProperties": false
}`

// validateAgainst checks a raw model payload against one of the embedded
// schemas. Schema violations come back as a single error listing every
// failing field so the log line tells the whole story.
func validateAgainst(schema, document string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed during load: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("model output failed schema validation: %s", strings.Join(msgs, "; "))
}
