package catalog

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema describing the catalog file: an ordered
// array of Record objects.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	item := reflector.Reflect(&Record{})
	item.Version = ""

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Product catalog",
		Description: "Ordered list of catalog products.",
		Type:        "array",
		Items:       item,
	}
	return json.MarshalIndent(root, "", "  ")
}
