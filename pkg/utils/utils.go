package utils

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// TypeMapper overrides the schema of a Go type. It returns nil for types it
// does not handle.
type TypeMapper func(reflect.Type) *jsonschema.Schema

// StringType renders every value of type T as a JSON string with the given
// format or pattern. Either may be empty.
func StringType[T any](format, pattern string) TypeMapper {
	target := reflect.TypeOf((*T)(nil)).Elem()

	return func(t reflect.Type) *jsonschema.Schema {
		if t != target {
			return nil
		}

		return &jsonschema.Schema{Type: "string", Format: format, Pattern: pattern}
	}
}

// GetSchemaFromConfig reflects config into an indented JSON schema with
// every definition inlined. Mappers are tried in order.
func GetSchemaFromConfig(config any, title, description string, mappers ...TypeMapper) (string, error) {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			for _, m := range mappers {
				if s := m(t); s != nil {
					return s
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(config)
	schema.Title = title
	schema.Description = description

	jsonSchemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
