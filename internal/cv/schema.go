package cv

import (
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the CV input document.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schema := r.Reflect(&ParsedCV{})
	schema.Title = "ParsedCV"
	schema.Description = "Résumé record accepted by ats-scorer"
	return schema
}
