package tool

import (
	"fmt"
	"strconv"
)

// ValidateArgs checks untyped arguments against the tool's JSON schema.
// Typed struct arguments are skipped. This is a lightweight subset of JSON
// Schema: required fields, property types and enums.
func ValidateArgs(schema map[string]interface{}, args any) error {
	input, untyped, err := ArgsMap(args)
	if err != nil {
		return err
	}
	if !untyped {
		return nil
	}
	return validateObject(schema, input)
}

func validateObject(schema map[string]interface{}, input map[string]interface{}) error {
	for _, fieldName := range requiredFields(schema) {
		if v, exists := input[fieldName]; !exists || v == nil {
			return fmt.Errorf("missing required field: %s", fieldName)
		}
	}

	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		return nil
	}

	for key, value := range input {
		propSchema, ok := properties[key].(map[string]interface{})
		if !ok || value == nil {
			continue
		}
		if err := validateType(key, propSchema, value); err != nil {
			return err
		}
	}
	return nil
}

func requiredFields(schema map[string]interface{}) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []interface{}:
		out := make([]string, 0, len(required))
		for _, field := range required {
			if name, ok := field.(string); ok {
				out = append(out, name)
			}
		}
		return out
	}
	return nil
}

func validateType(fieldName string, schema map[string]interface{}, value interface{}) error {
	expectedType, _ := schema["type"].(string)

	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("field '%s' expected string, got %T", fieldName, value)
		}
	case "number", "integer":
		switch v := value.(type) {
		case float64, int, int64:
		case string:
			// Some models quote numbers; the decoder accepts them.
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("field '%s' expected number, got %q", fieldName, v)
			}
		default:
			return fmt.Errorf("field '%s' expected number, got %T", fieldName, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s' expected boolean, got %T", fieldName, value)
		}
	case "array":
		arr, ok := value.([]interface{})
		if !ok {
			return fmt.Errorf("field '%s' expected array, got %T", fieldName, value)
		}
		if itemsSchema, ok := schema["items"].(map[string]interface{}); ok {
			for i, item := range arr {
				if err := validateType(fmt.Sprintf("%s[%d]", fieldName, i), itemsSchema, item); err != nil {
					return err
				}
			}
		}
	case "object":
		obj, ok := value.(map[string]interface{})
		if !ok {
			return fmt.Errorf("field '%s' expected object, got %T", fieldName, value)
		}
		return validateObject(schema, obj)
	}

	if enum, ok := schema["enum"].([]string); ok {
		s := fmt.Sprint(value)
		for _, allowed := range enum {
			if s == allowed {
				return nil
			}
		}
		return fmt.Errorf("field '%s' must be one of %v, got %q", fieldName, enum, s)
	}
	return nil
}
