package util

import (
	"reflect"
	"slices"
	"strings"
)

// CreateSchema derives an object schema from the exported fields of a
// struct. Field names follow the json tag, a description tag becomes the
// property description, and fields are required unless they are pointers or
// tagged omitempty. Non-struct input yields an empty object schema.
func CreateSchema(structType any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}

	t := reflect.TypeOf(structType)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return schema
	}

	properties := schema["properties"].(map[string]any)
	var required []string

	for field := range fields(t) {
		name, opts, skip := jsonName(field)
		if skip {
			continue
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if d := field.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		properties[name] = prop

		if field.Type.Kind() != reflect.Pointer && !slices.Contains(opts, "omitempty") {
			required = append(required, name)
		}
	}

	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func fields(t reflect.Type) func(yield func(reflect.StructField) bool) {
	return func(yield func(reflect.StructField) bool) {
		for i := range t.NumField() {
			f := t.Field(i)
			if f.IsExported() && !yield(f) {
				return
			}
		}
	}
}

// jsonName returns the property name and tag options of f.
func jsonName(f reflect.StructField) (string, []string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", nil, true
	}

	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = f.Name
	}

	opts := parts[1:]
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}

	return name, opts, false
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Pointer:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}
