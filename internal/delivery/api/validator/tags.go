package validator

import (
	"reflect"
	"strings"
)

// jsonFieldName reports fields by their JSON name so clients can map errors back to inputs.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}

	return name
}
