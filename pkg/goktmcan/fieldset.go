package goktmcan

import (
	"fmt"
	"strconv"
)

// FieldSet offers typed lookups over a decoded field list.
type FieldSet struct {
	fields []Field
}

// FieldSet returns a FieldSet wrapper for the result's fields.
func (r Result) FieldSet() FieldSet {
	return FieldSetOf(r.Fields)
}

// FieldSetOf wraps a field list as returned by Decoder.Decode.
func FieldSetOf(fields []Field) FieldSet {
	return FieldSet{fields: fields}
}

// Len returns the number of fields.
func (fs FieldSet) Len() int { return len(fs.fields) }

// Map exposes the fields keyed by name.
func (fs FieldSet) Map() map[string]any {
	out := make(map[string]any, len(fs.fields))
	for _, f := range fs.fields {
		out[f.Name] = f.Value
	}
	return out
}

// Raw returns the stored value without conversions.
func (fs FieldSet) Raw(name string) (any, bool) {
	for _, f := range fs.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Float returns the field coerced to float64.
func (fs FieldSet) Float(name string) (float64, error) {
	v, ok := fs.Raw(name)
	if !ok {
		return 0, fmt.Errorf("field %q missing", name)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q is not numeric: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", name, v)
	}
}

// Uint returns the field as an unsigned integer.
func (fs FieldSet) Uint(name string) (uint64, error) {
	v, ok := fs.Raw(name)
	if !ok {
		return 0, fmt.Errorf("field %q missing", name)
	}
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("field %q is negative", name)
		}
		return uint64(n), nil
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("field %q is not an unsigned integer: %w", name, err)
		}
		return u, nil
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", name, v)
	}
}

// String returns the field as a string.
func (fs FieldSet) String(name string) (string, error) {
	v, ok := fs.Raw(name)
	if !ok {
		return "", fmt.Errorf("field %q missing", name)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// Bool returns the field coerced to bool.
func (fs FieldSet) Bool(name string) (bool, error) {
	v, ok := fs.Raw(name)
	if !ok {
		return false, fmt.Errorf("field %q missing", name)
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, fmt.Errorf("field %q is not bool: %w", name, err)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("field %q has unsupported type %T", name, v)
	}
}
