package tools

// Schema helpers for building JSON Schema definitions.

// ObjectSchema creates an object schema with the given properties.
func ObjectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty creates a string property with the given description.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// IntegerProperty creates an integer property with the given description.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// WithDefault returns a copy of property with a "default" value.
func WithDefault(property map[string]interface{}, value interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(property)+1)
	for k, v := range property {
		result[k] = v
	}
	result["default"] = value
	return result
}

// WithMinimum returns a copy of property with a "minimum" bound.
func WithMinimum(property map[string]interface{}, minimum int) map[string]interface{} {
	result := make(map[string]interface{}, len(property)+1)
	for k, v := range property {
		result[k] = v
	}
	result["minimum"] = minimum
	return result
}
