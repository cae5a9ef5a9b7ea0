package plugin

import (
	"fmt"
	"strings"
)

// FieldType describes the expected type of one data field in a NodeDef's
// optional Contract.
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeBool   FieldType = "bool"
	FieldTypeFloat  FieldType = "float"
	FieldTypeMap    FieldType = "map"
	FieldTypeSlice  FieldType = "slice"
	FieldTypeAny    FieldType = "any"
)

// FieldSpec describes a single field in a contract.
type FieldSpec struct {
	Type        FieldType
	Description string
	Default     any
}

// FieldContract optionally declares a plugin node's expected data fields,
// validated before Execute runs (an additive supplement to spec.md §4.5 —
// plugins with no Contract run unvalidated, exactly as the base spec
// describes).
type FieldContract struct {
	RequiredInputs map[string]FieldSpec
	OptionalInputs map[string]FieldSpec
}

// ValidateInputs checks data against the contract, returning a combined
// error describing every missing required field and type mismatch.
func ValidateInputs(contract *FieldContract, data map[string]any) error {
	if contract == nil {
		return nil
	}

	var errs []string
	for name, spec := range contract.RequiredInputs {
		val, ok := data[name]
		if !ok || val == nil {
			errs = append(errs, fmt.Sprintf("missing required field %q", name))
			continue
		}
		if err := checkType(name, val, spec.Type); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for name, spec := range contract.OptionalInputs {
		val, ok := data[name]
		if !ok || val == nil {
			continue
		}
		if err := checkType(name, val, spec.Type); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("contract validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyDefaults returns a copy of data with any missing optional fields
// filled in from the contract's declared defaults.
func ApplyDefaults(contract *FieldContract, data map[string]any) map[string]any {
	if contract == nil {
		return data
	}
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = v
	}
	for name, spec := range contract.OptionalInputs {
		if _, ok := result[name]; !ok && spec.Default != nil {
			result[name] = spec.Default
		}
	}
	return result
}

func checkType(name string, val any, ft FieldType) error {
	if ft == "" || ft == FieldTypeAny {
		return nil
	}
	switch ft {
	case FieldTypeString:
		if _, ok := val.(string); !ok {
			return fmt.Errorf("field %q: expected string, got %T", name, val)
		}
	case FieldTypeInt, FieldTypeFloat:
		switch val.(type) {
		case int, int64, float32, float64:
		default:
			return fmt.Errorf("field %q: expected number, got %T", name, val)
		}
	case FieldTypeBool:
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("field %q: expected bool, got %T", name, val)
		}
	case FieldTypeMap:
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("field %q: expected map, got %T", name, val)
		}
	case FieldTypeSlice:
		if _, ok := val.([]any); !ok {
			return fmt.Errorf("field %q: expected slice, got %T", name, val)
		}
	}
	return nil
}
