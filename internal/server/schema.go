package server

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// submitSchema shape-checks the submission payload before any binding. Field
// content rules live in the validation package; this only rejects payloads
// whose structure is wrong (missing formData, non-string intent id, etc).
const submitSchema = `{
	"type": "object",
	"required": ["formData", "paymentIntentId"],
	"properties": {
		"formData": {
			"type": "object",
			"properties": {
				"passportNumber": {"type": "string"},
				"email": {"type": "string"},
				"firstName": {"type": "string"},
				"lastName": {"type": "string"}
			}
		},
		"paymentIntentId": {"type": "string", "minLength": 1},
		"captchaToken": {"type": "string"}
	}
}`

var compiledSubmitSchema *gojsonschema.Schema

func init() {
	var err error
	compiledSubmitSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(submitSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid submit schema: %v", err))
	}
}

// checkSubmitShape validates the raw request body against the compiled
// schema and returns a terse description of the first problem.
func checkSubmitShape(body []byte) error {
	result, err := compiledSubmitSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("invalid request shape: %s", first.String())
	}
	return nil
}
